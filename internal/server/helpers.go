package server

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"applitrack/internal/middleware"
	"applitrack/internal/models"

	"github.com/gofiber/fiber/v2"
)

const missingFieldsMessage = "Validation error: Missing required fields"

// decodeObject parses the raw request body as a JSON object.
// Fields are kept as decoded so unknown ones reach the BaaS unchanged.
func decodeObject(c *fiber.Ctx) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("body is not a JSON object")
	}
	return body, nil
}

// stringValue renders a present JSON value as the string the BaaS expects.
// Non-string values are forwarded as their JSON text.
func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// upstreamFailure logs the BaaS error and answers 400 with a generic message.
func upstreamFailure(c *fiber.Ctx, message string, err error) error {
	middleware.Logger.ErrorContext(c.UserContext(), message,
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewUpstreamError(message, err))
}

package server

import (
	"applitrack/internal/models"
	"applitrack/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /signup.
// The body is forwarded as-is to create a users record.
func (s *Server) Signup(c *fiber.Ctx) error {
	body, err := decodeObject(c)
	if err != nil || len(validation.Missing(body, "email", "password", "passwordConfirm")) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(missingFieldsMessage))
	}

	user, err := s.backend.CreateUser(c.UserContext(), body)
	if err != nil {
		return upstreamFailure(c, "Signup failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Signup successful",
		"user":    user,
	})
}

// Login handles POST /login and relays the BaaS auth payload.
func (s *Server) Login(c *fiber.Ctx) error {
	body, err := decodeObject(c)
	if err != nil || len(validation.Missing(body, "email", "password")) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(missingFieldsMessage))
	}

	authData, err := s.backend.Authenticate(c.UserContext(),
		stringValue(body["email"]), stringValue(body["password"]))
	if err != nil {
		return upstreamFailure(c, "Login failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"authData": authData,
	})
}

// RequestPasswordReset handles POST /requestPasswordReset.
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	body, err := decodeObject(c)
	if err != nil || len(validation.Missing(body, "email")) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(missingFieldsMessage))
	}

	if err := s.backend.RequestPasswordReset(c.UserContext(), stringValue(body["email"])); err != nil {
		return upstreamFailure(c, "Password reset failed", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Package middleware provides request-scoped middleware: bearer extraction, logging, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"strings"

	"applitrack/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// TokenLocal is the Fiber locals key holding the caller's bearer token.
const TokenLocal = "token"

// BearerToken returns the token following the "Bearer " prefix of the Authorization header.
// The prefix match is case-sensitive and the token may be empty.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", false
	}
	return authHeader[len(bearerPrefix):], true
}

// BearerRequired rejects requests without an "Authorization: Bearer " header with 401.
// The token is not verified here; the BaaS is the authority on it.
func BearerRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}

		c.Locals(TokenLocal, token)
		if sub := TokenSubject(token); sub != "" {
			c.Locals("userID", sub)
			ctx := context.WithValue(c.UserContext(), UserIDKey, sub)
			c.SetUserContext(ctx)
		}

		return c.Next()
	}
}

// Token returns the bearer token stored by BearerRequired.
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(TokenLocal).(string)
	return token
}

// TokenSubject reads the record id from a BaaS token without verifying it.
// It is only used to attribute log lines; an unparsable token yields "".
func TokenSubject(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

package http

import (
	"strings"

	"chessengine/internal/core"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator checks a bearer token and returns its subject and claims
type TokenValidator func(token string) (string, map[string]any, error)

// AuthRequired rejects requests without a valid bearer token
func AuthRequired(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c.Get("Authorization"))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "missing authorization token",
				Code:  core.ErrCodeUnauthorized,
			})
		}

		subject, _, err := validateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "invalid or expired token",
				Code:  core.ErrCodeUnauthorized,
			})
		}

		c.Locals("subject", subject)
		return c.Next()
	}
}

func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

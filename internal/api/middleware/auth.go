package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/patrolbot/hub/internal/domain"
)

// Auth guards ingest endpoints with the shared robot API key. The key
// travels in the X-API-Key header and is compared byte for byte; there is
// exactly one caller (the robot on the local network), so no key registry
// is involved.
func Auth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-API-Key")
		if provided == "" {
			return domain.ErrUnauthorized
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}

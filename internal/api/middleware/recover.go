package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Recover converts a handler panic into a logged 500 so a single bad
// request cannot take the hub down.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Error("recovered from handler panic",
				slog.Any("panic", rec),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
			)

			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "INTERNAL_ERROR",
					"message": "An unexpected error occurred",
				},
			})
		}()
		return c.Next()
	}
}

package middleware

import (
	"crypto/subtle"

	"propertypulse/config"

	"github.com/gofiber/fiber/v2"
)

// Protected guards admin endpoints (lead listing, sweep trigger, article
// generation) with a static API key passed in the X-API-Key header.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := config.AppConfig.AdminAPIKey
		if expected == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Admin API is not configured",
			})
		}

		provided := c.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing API key",
			})
		}

		return c.Next()
	}
}

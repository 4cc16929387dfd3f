package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const userIDKey = "userID"

// RequireUser pulls the authenticated user id forwarded by the gateway and
// stores it in locals. Routes behind it can rely on UserID(c) being non-empty.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by RequireUser, or "" on
// unauthenticated routes.
func UserID(c *fiber.Ctx) string {
	if v, ok := c.Locals(userIDKey).(string); ok {
		return v
	}
	return ""
}

package middleware

import (
	"crypto/subtle"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

var gatewayToken string

// InitGateway loads the shared service token. Fatal when unset: every
// deployment sits behind the auth gateway.
func InitGateway() {
	gatewayToken = os.Getenv("GATEWAY_SERVICE_TOKEN")
	if gatewayToken == "" {
		log.Fatal("❌ GATEWAY_SERVICE_TOKEN is not set")
	}
}

// GatewayOnly rejects requests that did not come through the auth gateway.
func GatewayOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-Gateway-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(gatewayToken)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway token",
			})
		}
		return c.Next()
	}
}

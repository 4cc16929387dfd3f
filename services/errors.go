package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors returned by service methods and mapped to HTTP statuses at
// the handler boundary.
var (
	ErrNotFound                = errors.New("not found")
	ErrValidation              = errors.New("validation failed")
	ErrQuotaExceeded           = errors.New("daily vote quota exceeded")
	ErrInsufficientSubmissions = errors.New("not enough submissions to pair")
	ErrForbidden               = errors.New("forbidden")
)

// respondError maps a service error onto the response. Internal errors are
// logged with detail but the body stays generic.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrValidation), errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrInsufficientSubmissions):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

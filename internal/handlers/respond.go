package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// fail writes the error body understood by inventory clients.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"mensagem": message,
		"erro":     message,
	})
}

// invalid reports validator errors per field.
func invalid(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"mensagem": "Incomplete or invalid data",
		"erro":     "Incomplete or invalid data",
		"errors":   errs,
	})
}

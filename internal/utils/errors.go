// Package utils holds small Fiber response helpers shared by handlers.
package utils

import (
	"bithub/internal/errmsg"

	"github.com/gofiber/fiber/v3"
)

// StatusError writes se as a {"message": ...} body with its status code.
func StatusError(c fiber.Ctx, se errmsg.StatusError) error {
	return c.Status(se.StatusCode).JSON(map[string]string{
		"message": se.Message,
	})
}

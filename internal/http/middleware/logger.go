package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"personapi/internal/logging"
)

// AccessLog logs each HTTP request as one JSON line on log.
// Fields: request_id, method, path, status, latency (ms) and ts.
func AccessLog(log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := resolve(c, c.Next())

		status := c.Response().StatusCode()

		level := "info"
		if status >= fiber.StatusInternalServerError {
			level = "error"
		}
		log.Log(map[string]any{
			"level":      level,
			"request_id": RequestIDFrom(c.UserContext()),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})

		return err
	}
}

package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

type requestIDKey struct{}

// RequestID makes sure every request carries an ID.
//
// The incoming X-Request-ID is reused when present, otherwise a UUID is
// generated. The value is stored in locals under RequestIDLocalKey, attached
// to the user context, and echoed back in the response header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.SetUserContext(context.WithValue(c.UserContext(), requestIDKey{}, id))
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}

// RequestIDFrom returns the request ID stored in ctx by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

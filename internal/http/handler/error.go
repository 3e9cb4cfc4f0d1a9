package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"personapi/internal/http/middleware"
	"personapi/internal/logging"
	"personapi/internal/service"
)

// Messages used by the error translators.
const (
	MsgNotFound         = "Page Not Found"
	MsgMethodNotAllowed = "Method Not Allowed"
	prefixInvalidJSON   = "Invalid JSON: "
	reasonInvalidJSON   = "Fix Your JSON"
	prefixInvalidPerson = "Invalid Person: "
	prefixServerError   = "Bad Things Happened: "
)

// ErrorEnvelope is the JSON body of every error response.
type ErrorEnvelope struct {
	Message   string `json:"message"`
	Links     Links  `json:"links"`
	RequestID string `json:"request_id,omitempty"`
}

// Links holds the envelope's hypermedia references.
type Links struct {
	// Self is the URI of the request that produced the error.
	Self string `json:"self"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	return middleware.RequestIDFrom(c.UserContext())
}

// writeError writes an ErrorEnvelope linked to the current request.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorEnvelope{
		Message:   message,
		Links:     Links{Self: c.OriginalURL()},
		RequestID: requestIDFromCtx(c),
	})
}

// translator turns a matched error into a response.
type translator struct {
	name    string
	matches func(err error) bool
	respond func(c *fiber.Ctx, err error) error
}

// translators is evaluated top to bottom; the first match wins. Body parse
// failures come first, then status-specific translators, then the fallback.
func translators(log *logging.Logger) []translator {
	return []translator{
		{
			name:    "malformed_body",
			matches: func(err error) bool { var m *MalformedBodyError; return errors.As(err, &m) },
			respond: func(c *fiber.Ctx, err error) error {
				var m *MalformedBodyError
				errors.As(err, &m)
				c.Response().Header.SetStatusMessage([]byte(reasonInvalidJSON))
				return writeError(c, fiber.StatusBadRequest, prefixInvalidJSON+m.Description())
			},
		},
		{
			name:    "person_required",
			matches: func(err error) bool { return errors.Is(err, service.ErrPersonRequired) },
			respond: func(c *fiber.Ctx, err error) error {
				return writeError(c, fiber.StatusBadRequest, prefixInvalidPerson+service.ErrPersonRequired.Error())
			},
		},
		{
			name:    "person_not_found",
			matches: func(err error) bool { return errors.Is(err, service.ErrNotFound) },
			respond: func(c *fiber.Ctx, err error) error {
				return writeError(c, fiber.StatusNotFound, MsgNotFound)
			},
		},
		{
			name:    "route_not_found",
			matches: func(err error) bool { return hasStatus(err, fiber.StatusNotFound) },
			respond: func(c *fiber.Ctx, err error) error {
				return writeError(c, fiber.StatusNotFound, MsgNotFound)
			},
		},
		{
			name:    "method_not_allowed",
			matches: func(err error) bool { return hasStatus(err, fiber.StatusMethodNotAllowed) },
			respond: func(c *fiber.Ctx, err error) error {
				return writeError(c, fiber.StatusMethodNotAllowed, MsgMethodNotAllowed)
			},
		},
		{
			name: "client_error",
			matches: func(err error) bool {
				var fe *fiber.Error
				return errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError
			},
			respond: func(c *fiber.Ctx, err error) error {
				var fe *fiber.Error
				errors.As(err, &fe)
				return writeError(c, fe.Code, fe.Message)
			},
		},
		{
			name:    "unhandled",
			matches: func(error) bool { return true },
			respond: func(c *fiber.Ctx, err error) error {
				log.Error("unhandled_fault", err, map[string]any{
					"request_id": requestIDFromCtx(c),
					"method":     c.Method(),
					"path":       c.OriginalURL(),
				})
				return writeError(c, fiber.StatusInternalServerError, prefixServerError+err.Error())
			},
		},
	}
}

func hasStatus(err error, code int) bool {
	var fe *fiber.Error
	return errors.As(err, &fe) && fe.Code == code
}

// ErrorHandler returns the Fiber global error handler. It walks the
// translator chain and never fails: if writing the JSON envelope fails a
// bare 500 is sent instead.
func ErrorHandler(log *logging.Logger) fiber.ErrorHandler {
	chain := translators(log)
	return func(c *fiber.Ctx, err error) error {
		for _, t := range chain {
			if !t.matches(err) {
				continue
			}
			if werr := t.respond(c, err); werr != nil {
				log.Error("error_response_failed", werr, map[string]any{"translator": t.name})
				return c.Status(fiber.StatusInternalServerError).SendString(http.StatusText(fiber.StatusInternalServerError))
			}
			return nil
		}
		return nil
	}
}

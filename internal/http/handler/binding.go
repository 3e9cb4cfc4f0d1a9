package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"personapi/internal/async"
	"personapi/internal/model"
)

// BodyMode selects how POST /people hands its body to the service.
type BodyMode string

const (
	// BodyValue decodes the body before calling the service.
	BodyValue BodyMode = "value"
	// BodySingle decodes the body when the service first awaits it.
	BodySingle BodyMode = "single"
	// BodyFuture decodes the body on its own goroutine, started right away.
	BodyFuture BodyMode = "future"
)

// ParseBodyMode maps a config string to a BodyMode, defaulting to BodyValue.
func ParseBodyMode(s string) BodyMode {
	switch m := BodyMode(strings.ToLower(strings.TrimSpace(s))); m {
	case BodySingle, BodyFuture:
		return m
	default:
		return BodyValue
	}
}

// MalformedBodyError reports a request body that could not be decoded into
// the expected shape.
type MalformedBodyError struct {
	Err error
}

func (e *MalformedBodyError) Error() string {
	return "malformed body: " + e.Err.Error()
}

func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}

// Description is the decoder's own account of the failure.
func (e *MalformedBodyError) Description() string {
	return e.Err.Error()
}

// decodePerson decodes body with the app's JSON decoder. A JSON null yields
// a nil person and no error; rejecting it is the service's job.
func decodePerson(decode utils.JSONUnmarshal, body []byte) (*model.Person, error) {
	var p *model.Person
	if err := decode(body, &p); err != nil {
		return nil, &MalformedBodyError{Err: err}
	}
	return p, nil
}

// personSource wraps the request body in the async.Source matching mode.
// Only BodyValue decodes here and can fail immediately; the other modes
// surface decode errors when awaited.
func personSource(c *fiber.Ctx, mode BodyMode) (async.Source[*model.Person], error) {
	decode := c.App().Config().JSONDecoder

	switch mode {
	case BodySingle:
		return async.Single(func(context.Context) (*model.Person, error) {
			return decodePerson(decode, c.Body())
		}), nil
	case BodyFuture:
		// fasthttp reuses the request buffer once the handler returns.
		body := utils.CopyBytes(c.Body())
		return async.Go(func() (*model.Person, error) {
			return decodePerson(decode, body)
		}), nil
	default:
		p, err := decodePerson(decode, c.Body())
		if err != nil {
			return nil, err
		}
		return async.Just(p), nil
	}
}

package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"personapi/internal/service"
)

// ErrSomethingWentWrong is the fault raised by TriggerFault.
var ErrSomethingWentWrong = errors.New("Something went wrong")

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RegisterRoutes attaches the people resource and probes to app.
// db may be nil when no external dependency needs checking.
func RegisterRoutes(app *fiber.App, db Pinger, svc service.PersonService, mode BodyMode) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/people", ListPeople(svc))
	app.Post("/people", CreatePerson(svc, mode))
	// Must precede /people/:name, which would otherwise capture "error".
	app.Get("/people/error", TriggerFault())
	app.Get("/people/:name", GetPerson(svc))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Tags probes
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorEnvelope
// @Router /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags probes
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListPeople godoc
// @Summary List people
// @Description Returns every stored person in insertion order.
// @Tags people
// @Produce json
// @Success 200 {array} model.Person
// @Failure 500 {object} ErrorEnvelope
// @Router /people [get]
func ListPeople(svc service.PersonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		people, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(people)
	}
}

// GetPerson godoc
// @Summary Get a person by first name
// @Tags people
// @Produce json
// @Param name path string true "First name"
// @Success 200 {object} model.Person
// @Failure 404 {object} ErrorEnvelope
// @Router /people/{name} [get]
func GetPerson(svc service.PersonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := svc.Get(c.UserContext(), c.Params("name"))
		if err != nil {
			return err
		}
		if !ok {
			return service.ErrNotFound
		}
		return c.JSON(p)
	}
}

// CreatePerson godoc
// @Summary Store a person
// @Description Stores the person under its first name, replacing any previous entry.
// @Tags people
// @Accept json
// @Produce json
// @Param person body model.Person true "Person"
// @Success 201 {object} model.Person
// @Failure 400 {object} ErrorEnvelope
// @Router /people [post]
func CreatePerson(svc service.PersonService, mode BodyMode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, err := personSource(c, mode)
		if err != nil {
			return err
		}
		p, err := svc.Create(c.UserContext(), src)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// TriggerFault godoc
// @Summary Always fails
// @Tags people
// @Produce json
// @Failure 500 {object} ErrorEnvelope
// @Router /people/error [get]
func TriggerFault() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return ErrSomethingWentWrong
	}
}

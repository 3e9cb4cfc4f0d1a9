package server

import (
	"strings"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"personapi/docs"
	handlers "personapi/internal/http/handler"
	"personapi/internal/http/middleware"
	"personapi/internal/logging"
	"personapi/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Log      *logging.Logger
	Service  service.PersonService
	DB       handlers.Pinger
	BodyMode handlers.BodyMode
	// Registry receives the request metrics and backs /metrics.
	Registry *prometheus.Registry
}

// New builds the Fiber app with middleware, routes, metrics and docs wired.
func New(d Deps) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:      "personapi",
		ErrorHandler: handlers.ErrorHandler(d.Log),
	})

	prom, err := middleware.NewPrometheusMiddleware(d.Registry)
	if err != nil {
		return nil, err
	}

	// Outermost first. recover sits innermost so panics become errors the
	// translator chain can handle.
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(d.Log))
	app.Use(prom.Handler())
	app.Use(otelfiber.Middleware())
	app.Use(recover.New())

	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, d.DB, d.Service, d.BodyMode)

	return app, nil
}

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlers "personapi/internal/http/handler"
	"personapi/internal/http/middleware"
	"personapi/internal/logging"
	"personapi/internal/repository/memory"
	"personapi/internal/service"
)

func newTestApp(t *testing.T, logs io.Writer) *fiber.App {
	t.Helper()
	app, err := New(Deps{
		Log:      logging.New(logs, time.UTC),
		Service:  service.NewPersonService(memory.NewPersonMemory()),
		BodyMode: handlers.BodyFuture,
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return app
}

func TestNew_PeopleFlow(t *testing.T) {
	app := newTestApp(t, io.Discard)

	req := httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(`{"firstName":"Fred"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/people", nil))
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `[{"firstName":"Fred","lastName":"","age":0}]`, string(body))
}

func TestNew_ErrorEnvelopes(t *testing.T) {
	var logs bytes.Buffer
	app := newTestApp(t, &logs)

	tests := []struct {
		name    string
		req     *http.Request
		status  int
		message string
	}{
		{
			name:    "fault",
			req:     httptest.NewRequest(http.MethodGet, "/people/error", nil),
			status:  http.StatusInternalServerError,
			message: "Bad Things Happened: Something went wrong",
		},
		{
			name:    "unknown route",
			req:     httptest.NewRequest(http.MethodGet, "/nowhere", nil),
			status:  http.StatusNotFound,
			message: "Page Not Found",
		},
		{
			name:    "missing person",
			req:     httptest.NewRequest(http.MethodGet, "/people/Barney", nil),
			status:  http.StatusNotFound,
			message: "Page Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Header.Set(middleware.RequestIDHeader, "rid-"+tt.name)
			resp, err := app.Test(tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			var env handlers.ErrorEnvelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, tt.req.URL.RequestURI(), env.Links.Self)
			assert.Equal(t, "rid-"+tt.name, env.RequestID)
		})
	}

	assert.Contains(t, logs.String(), `"msg":"unhandled_fault"`)
}

func TestNew_RecoversPanics(t *testing.T) {
	app := newTestApp(t, io.Discard)
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var env handlers.ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "Bad Things Happened: kaboom", env.Message)
}

func TestNew_Metrics(t *testing.T) {
	app := newTestApp(t, io.Discard)

	_, _ = app.Test(httptest.NewRequest(http.MethodGet, "/people", nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/people",status="200"} 1`)
}

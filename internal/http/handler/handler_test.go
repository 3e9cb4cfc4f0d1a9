package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"personapi/internal/logging"
	"personapi/internal/model"
	"personapi/internal/repository/memory"
	"personapi/internal/service"
	serviceMocks "personapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logging.New(io.Discard, time.UTC)),
	})
}

func decodeEnvelope(t *testing.T, resp *http.Response) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := newApp()
	app.Get("/health", HealthCheck(db))
	app.Get("/health-nodb", HealthCheck(nil))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "dependency unavailable", env.Message)
		assert.Equal(t, "/health", env.Links.Self)
	})

	t.Run("no dependency", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health-nodb", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newApp()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListPeople(t *testing.T) {
	mockSvc := new(serviceMocks.MockPersonService)
	app := newApp()
	app.Get("/people", ListPeople(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).
			Return([]model.Person{{FirstName: "Fred"}, {FirstName: "Barney"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/people", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `[{"firstName":"Fred","lastName":"","age":0},{"firstName":"Barney","lastName":"","age":0}]`, string(body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty is an array", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.Person{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/people", nil))

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "[]", string(body))
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/people", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "Bad Things Happened: db down", env.Message)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetPerson(t *testing.T) {
	mockSvc := new(serviceMocks.MockPersonService)
	app := newApp()
	app.Get("/people/:name", GetPerson(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "Fred").Return(&model.Person{FirstName: "Fred"}, true, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/people/Fred", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var p model.Person
		json.NewDecoder(resp.Body).Decode(&p)
		assert.Equal(t, "Fred", p.FirstName)
		mockSvc.AssertExpectations(t)
	})

	t.Run("absent", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "Barney").Return(nil, false, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/people/Barney?x=1", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, MsgNotFound, env.Message)
		assert.Equal(t, "/people/Barney?x=1", env.Links.Self)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "Fred").Return(nil, false, errors.New("db error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/people/Fred", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreatePerson(t *testing.T) {
	for _, mode := range []BodyMode{BodyValue, BodySingle, BodyFuture} {
		t.Run(string(mode), func(t *testing.T) {
			svc := service.NewPersonService(memory.NewPersonMemory())
			app := newApp()
			app.Post("/people", CreatePerson(svc, mode))
			app.Get("/people", ListPeople(svc))

			t.Run("created", func(t *testing.T) {
				resp, _ := app.Test(postJSON("/people", `{"firstName":"Fred","lastName":"Flintstone","age":35}`))

				assert.Equal(t, http.StatusCreated, resp.StatusCode)
				body, _ := io.ReadAll(resp.Body)
				assert.JSONEq(t, `{"firstName":"Fred","lastName":"Flintstone","age":35}`, string(body))
			})

			t.Run("zero values echoed", func(t *testing.T) {
				resp, _ := app.Test(postJSON("/people", `{"firstName":"Dino","lastName":"","age":0}`))

				assert.Equal(t, http.StatusCreated, resp.StatusCode)
				body, _ := io.ReadAll(resp.Body)
				assert.JSONEq(t, `{"firstName":"Dino","lastName":"","age":0}`, string(body))
			})

			t.Run("malformed body", func(t *testing.T) {
				resp, _ := app.Test(postJSON("/people", `{"firstName":`))

				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, "400 Fix Your JSON", resp.Status)
				env := decodeEnvelope(t, resp)
				assert.True(t, strings.HasPrefix(env.Message, "Invalid JSON: "), env.Message)
				assert.Contains(t, env.Message, "unexpected end of JSON input")
				assert.Equal(t, "/people", env.Links.Self)
			})

			t.Run("wrong field type", func(t *testing.T) {
				resp, _ := app.Test(postJSON("/people", `{"firstName":42}`))

				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, "400 Fix Your JSON", resp.Status)
				env := decodeEnvelope(t, resp)
				assert.Contains(t, env.Message, "Invalid JSON: ")
			})

			t.Run("null person", func(t *testing.T) {
				resp, _ := app.Test(postJSON("/people", `null`))

				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, "400 Bad Request", resp.Status)
				env := decodeEnvelope(t, resp)
				assert.Equal(t, "Invalid Person: person is required", env.Message)
			})

			t.Run("overwrite keeps position", func(t *testing.T) {
				resp, _ := app.Test(postJSON("/people", `{"firstName":"Fred","age":40}`))
				assert.Equal(t, http.StatusCreated, resp.StatusCode)

				resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/people", nil))
				body, _ := io.ReadAll(resp.Body)
				assert.JSONEq(t, `[{"firstName":"Fred","lastName":"","age":40},{"firstName":"Dino","lastName":"","age":0}]`, string(body))
			})
		})
	}
}

func TestCreatePerson_ModesAgree(t *testing.T) {
	const input = `{"firstName":"Wilma","lastName":"Flintstone","age":33}`

	var bodies []string
	var lists []string
	for _, mode := range []BodyMode{BodyValue, BodySingle, BodyFuture} {
		svc := service.NewPersonService(memory.NewPersonMemory())
		app := newApp()
		app.Post("/people", CreatePerson(svc, mode))

		resp, _ := app.Test(postJSON("/people", input))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		bodies = append(bodies, string(b))

		people, err := svc.List(context.Background())
		require.NoError(t, err)
		l, _ := json.Marshal(people)
		lists = append(lists, string(l))
	}

	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
	assert.Equal(t, lists[0], lists[1])
	assert.Equal(t, lists[0], lists[2])
}

func TestCreatePerson_ServiceError(t *testing.T) {
	mockSvc := new(serviceMocks.MockPersonService)
	app := newApp()
	app.Post("/people", CreatePerson(mockSvc, BodySingle))

	mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("save failed")).Once()

	resp, _ := app.Test(postJSON("/people", `{"firstName":"Fred"}`))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "Bad Things Happened: save failed", env.Message)
	mockSvc.AssertExpectations(t)
}

func TestParseBodyMode(t *testing.T) {
	assert.Equal(t, BodyValue, ParseBodyMode(""))
	assert.Equal(t, BodyValue, ParseBodyMode("bogus"))
	assert.Equal(t, BodySingle, ParseBodyMode("single"))
	assert.Equal(t, BodyFuture, ParseBodyMode(" Future "))
}

func TestRouting(t *testing.T) {
	app := newApp()
	svc := service.NewPersonService(memory.NewPersonMemory())
	RegisterRoutes(app, nil, svc, BodyValue)

	t.Run("fault route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/people/error", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "Bad Things Happened: Something went wrong", env.Message)
		assert.Equal(t, "/people/error", env.Links.Self)
	})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "Page Not Found", env.Message)
		assert.Equal(t, "/non-existent", env.Links.Self)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, MsgMethodNotAllowed, env.Message)
	})

	t.Run("example flow", func(t *testing.T) {
		resp, _ := app.Test(postJSON("/people", `{"firstName":"Fred"}`))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/people", nil))
		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `[{"firstName":"Fred","lastName":"","age":0}]`, string(body))

		resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/people/Fred", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ = io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"firstName":"Fred","lastName":"","age":0}`, string(body))

		resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/people/Barney", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

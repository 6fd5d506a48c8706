package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func newTestApp() (*fiber.App, *observability.Metrics) {
	app := fiber.New()
	metrics := observability.NewMetrics()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	return app, metrics
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestErrorMiddlewareMapsDomainErrors(t *testing.T) {
	app, _ := newTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("Ticket", map[string]any{"ticket_id": "abc"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	assert.Equal(t, "Ticket not found", envelope.Error.Message)
	assert.Equal(t, "abc", envelope.Error.Details["ticket_id"])
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app, metrics := newTestApp()
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)

	_, errorCounts := metrics.Snapshot()
	assert.NotEmpty(t, errorCounts)
}

func TestErrorMiddlewarePassesPersistenceMessage(t *testing.T) {
	app, _ := newTestApp()
	app.Get("/db", func(c *fiber.Ctx) error {
		return apperrors.NewInternalError(errors.New(`duplicate key value violates unique constraint "tickets_pkey"`))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/db", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "tickets_pkey")
}

func TestRequestMetricsSeeFinalStatusOnErrors(t *testing.T) {
	app, metrics := newTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("Ticket", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	requests, _ := metrics.Snapshot()
	assert.Equal(t, int64(1), requests["/boom|GET|404"])
}

func TestRequestLoggerRecordsMetrics(t *testing.T) {
	app, metrics := newTestApp()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	requests, _ := metrics.Snapshot()
	assert.NotEmpty(t, requests)
}

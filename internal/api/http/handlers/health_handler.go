package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// OllamaProber reports inference endpoint liveness for the health check.
type OllamaProber interface {
	Available(ctx context.Context) bool
}

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis
	prober   OllamaProber
	metrics  *observability.Metrics
	name     string
	version  string
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(pg *persistence.Postgres, rd *persistence.Redis, prober OllamaProber, metrics *observability.Metrics, name, version string) *HealthHandler {
	return &HealthHandler{
		postgres: pg,
		redis:    rd,
		prober:   prober,
		metrics:  metrics,
		name:     name,
		version:  version,
	}
}

// Health GET /api/health. Postgres down means unhealthy; Redis and Ollama
// only degrade because both have working fallbacks.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	pgOK := h.postgres.Ping(ctx) == nil
	redisOK := h.redis.Ping(ctx) == nil
	ollamaOK := h.prober != nil && h.prober.Available(ctx)

	status := "OK"
	code := fiber.StatusOK
	switch {
	case !pgOK:
		status = "UNHEALTHY"
		code = fiber.StatusServiceUnavailable
	case !redisOK || !ollamaOK:
		status = "DEGRADED"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"service": h.name,
		"version": h.version,
		"dependencies": fiber.Map{
			"postgres": pgOK,
			"redis":    redisOK,
			"ollama":   ollamaOK,
		},
	})
}

// Metrics GET /api/metrics dumps the in-memory request counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	requests, errors := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"requests": requests,
		"errors":   errors,
	})
}

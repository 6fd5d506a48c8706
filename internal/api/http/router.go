package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Tickets  *handlers.TicketsHandler
	AI       *handlers.AIHandler
	Workflow *handlers.WorkflowHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group("/api")

	api.Get("/health", cfg.Health.Health)
	api.Get("/metrics", cfg.Health.Metrics)

	tickets := api.Group("/tickets")
	// Static paths first so they are not swallowed by the :id parameter.
	tickets.Get("/sla-policy", cfg.Tickets.SLAPolicy)
	tickets.Get("/stats/dashboard", cfg.Tickets.DashboardStats)
	tickets.Get("/stage/:stage", cfg.Tickets.ListByStage)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)
	tickets.Post("/:id/reanalyze", cfg.Tickets.ReanalyzeTicket)

	aiGroup := api.Group("/ai")
	aiGroup.Post("/analyze", cfg.AI.Analyze)
	aiGroup.Post("/generate-response", cfg.AI.GenerateResponse)
	aiGroup.Get("/health", cfg.AI.Health)

	workflow := api.Group("/workflow")
	workflow.Post("/advance-stage/:id", cfg.Workflow.AdvanceStage)
	workflow.Post("/trigger-automation/:id", cfg.Workflow.TriggerAutomation)
	workflow.Post("/bulk-automation", cfg.Workflow.BulkAutomation)
	workflow.Get("/stats", cfg.Workflow.Stats)
	workflow.Get("/pending-automation", cfg.Workflow.PendingAutomation)
}

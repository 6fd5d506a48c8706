package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages the ticket CRUD and aggregation endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		SLALevel:         req.SLALevel,
		IssueDescription: req.IssueDescription,
		IssueType:        req.IssueType,
		TicketSource:     req.TicketSource,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ticket":        dto.FromTicket(result.Ticket),
		"auto_response": result.AutoResponse,
		"ai_analysis": fiber.Map{
			"priority":                  result.Analysis.Priority,
			"is_complex":                result.Analysis.IsComplex,
			"requires_password_reset":   result.Analysis.RequiresPasswordReset,
			"suggested_solution":        result.Analysis.SuggestedSolution,
			"estimated_resolution_time": result.Analysis.EstimatedResolutionTime,
			"outcome":                   result.Outcome,
		},
	})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTickets(tickets))
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), service.TicketUpdateInput{
		Status:          req.Status,
		AssignedTo:      req.AssignedTo,
		SolutionStep:    req.SolutionStep,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Ticket deleted successfully",
	})
}

// SubmitFeedback POST /api/tickets/:id/feedback.
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SubmitFeedback(c.UserContext(), c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// ReanalyzeTicket POST /api/tickets/:id/reanalyze.
func (h *TicketsHandler) ReanalyzeTicket(c *fiber.Ctx) error {
	ticket, outcome, err := h.service.Reanalyze(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ticket":  dto.FromTicket(ticket),
		"outcome": outcome,
	})
}

// ListByStage GET /api/tickets/stage/:stage.
func (h *TicketsHandler) ListByStage(c *fiber.Ctx) error {
	tickets, err := h.service.ListByStage(c.UserContext(), domain.ProcessStage(c.Params("stage")))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTickets(tickets))
}

// DashboardStats GET /api/tickets/stats/dashboard.
func (h *TicketsHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.DashboardStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// SLAPolicy GET /api/tickets/sla-policy.
func (h *TicketsHandler) SLAPolicy(c *fiber.Ctx) error {
	return c.JSON(h.service.Policy())
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{}

	if val := c.Query("status"); val != "" {
		status := domain.TicketStatus(val)
		if !status.Valid() {
			return filter, apperrors.NewValidationError("unknown status filter", map[string]any{"status": val})
		}
		filter.Status = &status
	}
	if val := c.Query("assigned_level"); val != "" {
		level := domain.SupportLevel(val)
		if !level.Valid() {
			return filter, apperrors.NewValidationError("unknown assigned_level filter", map[string]any{"assigned_level": val})
		}
		filter.AssignedLevel = &level
	}
	if val := c.Query("sla_level"); val != "" {
		tier := domain.SLATier(val)
		if !tier.Valid() {
			return filter, apperrors.NewValidationError("unknown sla_level filter", map[string]any{"sla_level": val})
		}
		filter.SLALevel = &tier
	}
	if val := c.Query("process_stage"); val != "" {
		stage := domain.ProcessStage(val)
		if !stage.Valid() {
			return filter, apperrors.NewValidationError("unknown process_stage filter", map[string]any{"process_stage": val})
		}
		filter.ProcessStage = &stage
	}
	if val := c.Query("priority_min"); val != "" {
		min, err := strconv.Atoi(val)
		if err != nil {
			return filter, apperrors.NewValidationError("priority_min must be an integer", nil)
		}
		filter.PriorityMin = &min
	}
	if val := c.Query("priority_max"); val != "" {
		max, err := strconv.Atoi(val)
		if err != nil {
			return filter, apperrors.NewValidationError("priority_max must be an integer", nil)
		}
		filter.PriorityMax = &max
	}
	return filter, nil
}

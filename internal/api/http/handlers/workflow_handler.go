package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// WorkflowHandler exposes stage advancement and automation endpoints.
type WorkflowHandler struct {
	service *service.WorkflowService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: workflowService}
}

// AdvanceStage POST /api/workflow/advance-stage/:id.
func (h *WorkflowHandler) AdvanceStage(c *fiber.Ctx) error {
	var req dto.AdvanceStageRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.AdvanceStage(c.UserContext(), c.Params("id"), req.PerformedBy, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": result.Advanced,
		"ticket":  dto.FromTicket(result.Ticket),
		"message": result.Message,
	})
}

// TriggerAutomation POST /api/workflow/trigger-automation/:id.
func (h *WorkflowHandler) TriggerAutomation(c *fiber.Ctx) error {
	var req dto.TriggerAutomationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.TriggerAutomation(c.UserContext(), c.Params("id"), service.AutomationAction(req.Action))
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success": result.Success,
		"message": result.Message,
	}
	if result.Ticket != nil {
		resp["ticket"] = dto.FromTicket(result.Ticket)
	}
	if result.AutoResponse != "" {
		resp["auto_response"] = result.AutoResponse
	}
	if result.PasswordResetSent {
		resp["password_reset_sent"] = true
	}
	if result.Escalated {
		resp["escalated"] = true
	}
	return c.JSON(resp)
}

// BulkAutomation POST /api/workflow/bulk-automation.
func (h *WorkflowHandler) BulkAutomation(c *fiber.Ctx) error {
	var req dto.BulkAutomationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.TicketIDs) == 0 {
		return apperrors.NewValidationError("Missing required fields: ticket_ids", nil)
	}

	results, err := h.service.BulkAutomation(c.UserContext(), service.AutomationAction(req.Action), req.TicketIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"processed": len(results),
		"results":   results,
	})
}

// Stats GET /api/workflow/stats.
func (h *WorkflowHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.WorkflowStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// PendingAutomation GET /api/workflow/pending-automation.
func (h *WorkflowHandler) PendingAutomation(c *fiber.Ctx) error {
	pending, err := h.service.PendingAutomation(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"pending_auto_response":  dto.FromTickets(pending.PendingAutoResponse),
		"pending_password_reset": dto.FromTickets(pending.PendingPasswordReset),
		"pending_escalation":     dto.FromTickets(pending.PendingEscalation),
	})
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const workflowStatsCacheKey = "stats:workflow"

// AutomationAction enumerates the discrete automation triggers.
type AutomationAction string

const (
	ActionSendAutoResponse AutomationAction = "send_auto_response"
	ActionPasswordReset    AutomationAction = "password_reset"
	ActionEscalateComplex  AutomationAction = "escalate_complex"
)

// Valid reports whether the action is a known value.
func (a AutomationAction) Valid() bool {
	switch a {
	case ActionSendAutoResponse, ActionPasswordReset, ActionEscalateComplex:
		return true
	}
	return false
}

// WorkflowService drives the process stage chain and automation actions.
type WorkflowService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	cache      *persistence.Redis
	cacheTTL   time.Duration
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Cache      *persistence.Redis
	CacheTTL   time.Duration
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
	}
}

// AdvanceResult reports one stage advance.
type AdvanceResult struct {
	Ticket   *domain.Ticket
	Advanced bool
	Message  string
}

// AdvanceStage moves the ticket one step along the process chain and applies
// the status side effects coupled to the target stage.
func (s *WorkflowService) AdvanceStage(ctx context.Context, id, performedBy, notes string) (*AdvanceResult, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketError(err, id)
	}

	next, ok := workflow.Next(ticket.ProcessStage, ticket.CustomerWaiting)
	if !ok {
		return &AdvanceResult{
			Ticket:   ticket,
			Advanced: false,
			Message:  "Workflow already completed",
		}, nil
	}

	if performedBy == "" {
		performedBy = "system"
	}
	step := fmt.Sprintf("Workflow advanced from %s to %s", ticket.ProcessStage, next)
	if notes != "" {
		step += ": " + notes
	}

	fromStage := ticket.ProcessStage
	ticket.ProcessStage = next
	ticket.AppendStep(step, performedBy)

	switch {
	case next == domain.StageBeingProcessed && ticket.Status == domain.TicketStatusOpen:
		ticket.Status = domain.TicketStatusInProgress
	case next == domain.StageSolutionProvided && ticket.Status != domain.TicketStatusResolved:
		now := time.Now().UTC()
		ticket.Status = domain.TicketStatusResolved
		ticket.ResolvedAt = &now
	case next == domain.StageCompleted:
		now := time.Now().UTC()
		ticket.Status = domain.TicketStatusClosed
		ticket.ClosedAt = &now
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapTicketError(err, id)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventStageAdvanced,
		TicketID: ticket.ID,
		Actor:    performedBy,
		Payload: events.StageAdvancedPayload{
			FromStage: fromStage,
			ToStage:   next,
			NewStatus: ticket.Status,
		},
	})

	return &AdvanceResult{
		Ticket:   ticket,
		Advanced: true,
		Message:  "Workflow advanced to " + string(next),
	}, nil
}

// AutomationResult reports one automation trigger.
type AutomationResult struct {
	Ticket            *domain.Ticket
	Success           bool
	Message           string
	AutoResponse      string
	PasswordResetSent bool
	Escalated         bool
}

// TriggerAutomation runs a single automation action against one ticket.
// Actions whose precondition is already satisfied are reported as
// success=false; re-invoking them is always safe.
func (s *WorkflowService) TriggerAutomation(ctx context.Context, id string, action AutomationAction) (*AutomationResult, error) {
	if !action.Valid() {
		return nil, apperrors.NewValidationError("Invalid automation action", map[string]any{"action": action})
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketError(err, id)
	}
	result := s.applyAutomation(ctx, ticket, action)
	if result.Success {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, mapTicketError(err, id)
		}
		result.Ticket = ticket
	}
	return result, nil
}

// applyAutomation mutates the ticket in memory; the caller persists on success.
func (s *WorkflowService) applyAutomation(ctx context.Context, ticket *domain.Ticket, action AutomationAction) *AutomationResult {
	switch action {
	case ActionSendAutoResponse:
		if ticket.AutoResponseSent {
			return &AutomationResult{Success: false, Message: "Auto-response already sent"}
		}
		autoResponse := GenerateAutoResponse(ticket)
		ticket.AutoResponseSent = true
		ticket.AppendStep("Auto-response sent: "+autoResponse, "system")
		s.publish(ctx, events.Event{
			Type:     events.EventAutoResponseSent,
			TicketID: ticket.ID,
			Actor:    "system",
			Payload:  events.AutoResponseSentPayload{Response: autoResponse},
		})
		return &AutomationResult{Success: true, Message: "Auto-response sent", AutoResponse: autoResponse}

	case ActionPasswordReset:
		if !ticket.RequiresPasswordReset {
			return &AutomationResult{Success: false, Message: "No automation needed or already performed"}
		}
		now := time.Now().UTC()
		ticket.AppendStep("Automated password reset email sent", "system")
		ticket.Status = domain.TicketStatusResolved
		ticket.ResolvedAt = &now
		ticket.ProcessStage = domain.StageSolutionProvided
		return &AutomationResult{Success: true, Message: "Password reset sent", PasswordResetSent: true}

	case ActionEscalateComplex:
		if !ticket.IsComplexTicket || ticket.AssignedLevel != domain.SupportLevelL1 {
			return &AutomationResult{Success: false, Message: "No escalation needed"}
		}
		now := time.Now().UTC()
		ticket.AssignedLevel = domain.SupportLevelL2
		ticket.Status = domain.TicketStatusEscalated
		ticket.EscalatedAt = &now
		ticket.AppendStep("Automatically escalated to L2 - Complex ticket detected", "system")
		s.publish(ctx, events.Event{
			Type:     events.EventTicketEscalated,
			TicketID: ticket.ID,
			Actor:    "system",
			Payload: events.TicketEscalatedPayload{
				FromLevel: domain.SupportLevelL1,
				ToLevel:   domain.SupportLevelL2,
				Reason:    "complex ticket",
			},
		})
		return &AutomationResult{Success: true, Message: "Escalated to L2", Escalated: true}
	}
	return &AutomationResult{Success: false, Message: "Invalid action"}
}

// BulkResult is the per-ticket outcome of a bulk automation run.
type BulkResult struct {
	TicketID string `json:"ticket_id"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// BulkAutomation applies one action across many tickets, collecting per-id
// outcomes. A failure on one id never aborts the remaining ids.
func (s *WorkflowService) BulkAutomation(ctx context.Context, action AutomationAction, ticketIDs []string) ([]BulkResult, error) {
	if !action.Valid() {
		return nil, apperrors.NewValidationError("Invalid automation action", map[string]any{"action": action})
	}

	results := make([]BulkResult, 0, len(ticketIDs))
	for _, id := range ticketIDs {
		results = append(results, s.bulkOne(ctx, id, action))
	}
	return results, nil
}

func (s *WorkflowService) bulkOne(ctx context.Context, id string, action AutomationAction) BulkResult {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		de := apperrors.ToDomainError(mapTicketError(err, id))
		msg := de.Message
		if de.Code == "NOT_FOUND" {
			msg = "Ticket not found"
		}
		return BulkResult{TicketID: id, Success: false, Message: msg}
	}

	result := s.applyAutomation(ctx, ticket, action)
	if !result.Success {
		return BulkResult{TicketID: id, Success: false, Message: result.Message}
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return BulkResult{TicketID: id, Success: false, Message: err.Error()}
	}
	return BulkResult{TicketID: id, Success: true, Message: result.Message}
}

// WorkflowStatsResponse bundles the workflow aggregation payload.
type WorkflowStatsResponse struct {
	WorkflowDistribution []repository.WorkflowStageStats `json:"workflow_distribution"`
	AutomationMetrics    repository.AutomationMetrics    `json:"automation_metrics"`
}

// WorkflowStats computes (or serves from cache) workflow aggregations.
func (s *WorkflowService) WorkflowStats(ctx context.Context) (*WorkflowStatsResponse, error) {
	if cached := s.cache.GetCached(ctx, workflowStatsCacheKey); cached != "" {
		var resp WorkflowStatsResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	stages, metrics, err := s.tickets.WorkflowStats(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	resp := &WorkflowStatsResponse{
		WorkflowDistribution: stages,
		AutomationMetrics:    *metrics,
	}
	if payload, err := json.Marshal(resp); err == nil {
		s.cache.SetCached(ctx, workflowStatsCacheKey, string(payload), s.cacheTTL)
	}
	return resp, nil
}

// PendingAutomationResponse lists tickets awaiting each automation action.
type PendingAutomationResponse struct {
	PendingAutoResponse  []domain.Ticket `json:"pending_auto_response"`
	PendingPasswordReset []domain.Ticket `json:"pending_password_reset"`
	PendingEscalation    []domain.Ticket `json:"pending_escalation"`
}

// PendingAutomation returns the tickets each automation action would touch.
func (s *WorkflowService) PendingAutomation(ctx context.Context) (*PendingAutomationResponse, error) {
	autoResponse, err := s.tickets.ListPendingAutoResponse(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	passwordReset, err := s.tickets.ListPendingPasswordReset(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	escalation, err := s.tickets.ListPendingEscalation(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &PendingAutomationResponse{
		PendingAutoResponse:  autoResponse,
		PendingPasswordReset: passwordReset,
		PendingEscalation:    escalation,
	}, nil
}

func (s *WorkflowService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

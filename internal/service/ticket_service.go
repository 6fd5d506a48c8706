package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const dashboardCacheKey = "stats:dashboard"

// Analyzer obtains AI judgments for ticket descriptions. It never fails:
// degraded paths return the fallback heuristic's judgment with a non-model
// outcome tag.
type Analyzer interface {
	Analyze(ctx context.Context, description string, tier domain.SLATier, issueType domain.IssueType) (domain.AIJudgment, domain.AnalysisOutcome)
	Available(ctx context.Context) bool
}

// TicketService coordinates the ticket lifecycle: intake with AI triage,
// updates, feedback and aggregations.
type TicketService struct {
	tickets    repository.TicketRepository
	analyzer   Analyzer
	pol        policy.Policy
	dispatcher events.Dispatcher
	cache      *persistence.Redis
	cacheTTL   time.Duration
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Analyzer   Analyzer
	Policy     policy.Policy
	Dispatcher events.Dispatcher
	Cache      *persistence.Redis
	CacheTTL   time.Duration
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		analyzer:   deps.Analyzer,
		pol:        deps.Policy,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
	}
}

// Policy exposes the loaded SLA policy document.
func (s *TicketService) Policy() policy.Policy {
	return s.pol
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	SLALevel         domain.SLATier
	IssueDescription string
	IssueType        domain.IssueType
	TicketSource     domain.TicketSource
}

// TicketCreateResult is the creation outcome returned to the API layer.
type TicketCreateResult struct {
	Ticket       *domain.Ticket
	AutoResponse string
	Analysis     domain.AIJudgment
	Outcome      domain.AnalysisOutcome
}

// CreateTicket runs the full intake chain: AI categorization, SLA
// prioritization, priority combination, queue assignment, persistence,
// auto-response and the first stage advances.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*TicketCreateResult, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	tier := input.SLALevel
	if tier == "" {
		tier = domain.SLATierNone
	}

	judgment, outcome := s.analyzer.Analyze(ctx, input.IssueDescription, tier, input.IssueType)

	slaPriority := triage.SLAPriority(tier, s.pol)
	finalPriority := triage.FinalPriority(judgment.Priority, slaPriority, input.IssueType, judgment.IsComplex, s.pol)
	assignedLevel := triage.AssignedLevel(judgment.Priority, slaPriority, input.IssueType, judgment.IsComplex, s.pol)

	ticket := &domain.Ticket{
		CustomerName:          strings.TrimSpace(input.CustomerName),
		CustomerEmail:         strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:         strings.TrimSpace(input.CustomerPhone),
		SLALevel:              tier,
		IssueDescription:      strings.TrimSpace(input.IssueDescription),
		IssueType:             input.IssueType,
		TicketSource:          input.TicketSource,
		SLAPriority:           slaPriority,
		AIPriority:            judgment.Priority,
		FinalPriority:         finalPriority,
		AssignedLevel:         assignedLevel,
		IsComplexTicket:       judgment.IsComplex,
		RequiresPasswordReset: judgment.RequiresPasswordReset,
		CustomerWaiting:       true,
		ResolutionMethod:      triage.ResolutionMethod(input.TicketSource),
		Status:                domain.TicketStatusOpen,
		ProcessStage:          domain.StageTicketCreated,
	}
	ticket.AppendStep(
		fmt.Sprintf("Ticket created via %s. AI analysis: priority %d, complex: %t",
			input.TicketSource, judgment.Priority, judgment.IsComplex),
		"system")

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	autoResponse := GenerateAutoResponse(ticket)
	ticket.AutoResponseSent = true
	ticket.ProcessStage = domain.StageSLAPrioritized
	ticket.AppendStep("Auto-response sent: "+autoResponse, "system")
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ticket.ProcessStage = domain.StageAICategorized
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    "system",
		Payload: events.TicketCreatedPayload{
			FinalPriority: ticket.FinalPriority,
			AssignedLevel: ticket.AssignedLevel,
			SLALevel:      ticket.SLALevel,
			IssueType:     ticket.IssueType,
			Outcome:       outcome,
		},
	})
	s.publish(ctx, events.Event{
		Type:     events.EventAutoResponseSent,
		TicketID: ticket.ID,
		Actor:    "system",
		Payload:  events.AutoResponseSentPayload{Response: autoResponse},
	})

	return &TicketCreateResult{
		Ticket:       ticket,
		AutoResponse: autoResponse,
		Analysis:     judgment,
		Outcome:      outcome,
	}, nil
}

// ListTickets returns tickets matching the filter, highest priority first.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// ListByStage returns tickets currently at the given process stage.
func (s *TicketService) ListByStage(ctx context.Context, stage domain.ProcessStage) ([]domain.Ticket, error) {
	if !stage.Valid() {
		return nil, apperrors.NewValidationError("unknown process stage", map[string]any{"stage": stage})
	}
	tickets, err := s.tickets.ListByStage(ctx, stage)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketError(err, id)
	}
	return ticket, nil
}

// TicketUpdateInput describes the update payload.
type TicketUpdateInput struct {
	Status          *domain.TicketStatus
	AssignedTo      string
	SolutionStep    string
	ResolutionNotes string
}

// UpdateTicket applies status-driven workflow moves and appends history.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketError(err, id)
	}

	actor := input.AssignedTo
	if actor == "" {
		actor = "support_agent"
	}

	if input.Status != nil {
		newStatus := *input.Status
		if !newStatus.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
		}
		ticket.Status = newStatus
		switch newStatus {
		case domain.TicketStatusInProgress:
			ticket.ProcessStage = domain.StageBeingProcessed
			ticket.AppendStep("Ticket assigned and work started", actor)
		case domain.TicketStatusWaitingCustomer:
			ticket.CustomerWaiting = true
			ticket.ProcessStage = domain.StageAwaitingCustomer
			ticket.AppendStep("Waiting for customer response", actor)
		case domain.TicketStatusResolved:
			now := time.Now().UTC()
			ticket.ResolvedAt = &now
			ticket.CustomerWaiting = false
			ticket.ProcessStage = domain.StageSolutionProvided
			ticket.AppendStep("Ticket resolved", actor)
		case domain.TicketStatusEscalated:
			now := time.Now().UTC()
			ticket.EscalatedAt = &now
			ticket.AssignedLevel = domain.SupportLevelL2
			ticket.AppendStep("Ticket escalated to Level 2", actor)
		}
	}

	if input.AssignedTo != "" {
		ticket.AssignedTo = input.AssignedTo
		if input.Status == nil || *input.Status != domain.TicketStatusInProgress {
			ticket.AppendStep("Assigned to "+input.AssignedTo, "system")
		}
	}

	if input.SolutionStep != "" {
		ticket.AppendStep(input.SolutionStep, actor)
	}

	if input.ResolutionNotes != "" {
		ticket.ResolutionNotes = input.ResolutionNotes
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapTicketError(err, id)
	}
	return ticket, nil
}

// SubmitFeedback stores the customer rating and closes the ticket.
func (s *TicketService) SubmitFeedback(ctx context.Context, id string, rating int, comment string) (*domain.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("Rating must be between 1 and 5", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketError(err, id)
	}
	if ticket.Feedback != nil {
		return nil, apperrors.NewConflict("Feedback already submitted", map[string]any{"ticket_id": id})
	}

	now := time.Now().UTC()
	ticket.Feedback = &domain.CustomerFeedback{
		Rating:       rating,
		Comment:      comment,
		FeedbackDate: now,
	}
	ticket.ProcessStage = domain.StageCompleted
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now

	commentText := comment
	if commentText == "" {
		commentText = "No comment"
	}
	ticket.AppendStep(fmt.Sprintf("Customer feedback received: %d/5 stars. %s", rating, commentText), "customer")

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapTicketError(err, id)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventFeedbackReceived,
		TicketID: ticket.ID,
		Actor:    "customer",
		Payload:  events.FeedbackReceivedPayload{Rating: rating, Comment: comment},
	})
	return ticket, nil
}

// DeleteTicket removes the ticket unconditionally (hard delete).
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return mapTicketError(err, id)
	}
	return nil
}

// Reanalyze re-runs the AI analysis and the priority combination for an
// existing ticket, overwriting all derived fields in one update.
func (s *TicketService) Reanalyze(ctx context.Context, id string) (*domain.Ticket, domain.AnalysisOutcome, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, "", mapTicketError(err, id)
	}

	judgment, outcome := s.analyzer.Analyze(ctx, ticket.IssueDescription, ticket.SLALevel, ticket.IssueType)
	slaPriority := triage.SLAPriority(ticket.SLALevel, s.pol)

	ticket.SLAPriority = slaPriority
	ticket.AIPriority = judgment.Priority
	ticket.FinalPriority = triage.FinalPriority(judgment.Priority, slaPriority, ticket.IssueType, judgment.IsComplex, s.pol)
	ticket.IsComplexTicket = judgment.IsComplex
	ticket.RequiresPasswordReset = judgment.RequiresPasswordReset

	// Re-routing only escalates; a ticket already at L2 stays there.
	if triage.AssignedLevel(judgment.Priority, slaPriority, ticket.IssueType, judgment.IsComplex, s.pol) == domain.SupportLevelL2 {
		ticket.AssignedLevel = domain.SupportLevelL2
	}
	ticket.AppendStep(fmt.Sprintf("Re-analysis: priority %d, complex: %t (%s)", judgment.Priority, judgment.IsComplex, outcome), "system")

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, "", mapTicketError(err, id)
	}
	return ticket, outcome, nil
}

// DashboardStatsResponse bundles the dashboard aggregation payload.
type DashboardStatsResponse struct {
	Overview                 repository.DashboardStats   `json:"overview"`
	PriorityDistribution     []repository.PriorityBucket `json:"priority_distribution"`
	ProcessStageDistribution []repository.StageBucket    `json:"process_stage_distribution"`
	CustomerSatisfaction     repository.FeedbackStats    `json:"customer_satisfaction"`
}

// DashboardStats computes (or serves from cache) the dashboard aggregation.
func (s *TicketService) DashboardStats(ctx context.Context) (*DashboardStatsResponse, error) {
	if cached := s.cache.GetCached(ctx, dashboardCacheKey); cached != "" {
		var resp DashboardStatsResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	overview, priorities, stages, feedback, err := s.tickets.DashboardStats(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	resp := &DashboardStatsResponse{
		Overview:                 *overview,
		PriorityDistribution:     priorities,
		ProcessStageDistribution: stages,
		CustomerSatisfaction:     *feedback,
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.cache.SetCached(ctx, dashboardCacheKey, string(payload), s.cacheTTL)
	}
	return resp, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
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

func validateCreateInput(input TicketCreateInput) error {
	missing := []string{}
	if strings.TrimSpace(input.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(input.IssueDescription) == "" {
		missing = append(missing, "issue_description")
	}
	if input.IssueType == "" {
		missing = append(missing, "issue_type")
	}
	if input.TicketSource == "" {
		missing = append(missing, "ticket_source")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError(
			"Missing required fields: "+strings.Join(missing, ", "), nil)
	}
	if !input.IssueType.Valid() {
		return apperrors.NewValidationError("unknown issue_type", map[string]any{"issue_type": input.IssueType})
	}
	if !input.TicketSource.Valid() {
		return apperrors.NewValidationError("unknown ticket_source", map[string]any{"ticket_source": input.TicketSource})
	}
	if input.SLALevel != "" && !input.SLALevel.Valid() {
		return apperrors.NewValidationError("unknown sla_level", map[string]any{"sla_level": input.SLALevel})
	}
	return nil
}

func mapTicketError(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("Ticket", map[string]any{"ticket_id": id})
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewInternalError(err)
}

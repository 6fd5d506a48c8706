package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// memoryTicketRepo is an in-memory TicketRepository for service tests.
type memoryTicketRepo struct {
	tickets map[string]domain.Ticket
}

func newMemoryTicketRepo() *memoryTicketRepo {
	return &memoryTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (m *memoryTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	m.tickets[ticket.ID] = *ticket
	return nil
}

func (m *memoryTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := m.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.tickets[ticket.ID] = *ticket
	return nil
}

func (m *memoryTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (m *memoryTicketRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tickets, id)
	return nil
}

func (m *memoryTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, ticket := range m.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.AssignedLevel != nil && ticket.AssignedLevel != *filter.AssignedLevel {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (m *memoryTicketRepo) ListByStage(ctx context.Context, stage domain.ProcessStage) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, ticket := range m.tickets {
		if ticket.ProcessStage == stage {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (m *memoryTicketRepo) ListPendingAutoResponse(ctx context.Context) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, ticket := range m.tickets {
		if !ticket.AutoResponseSent && ticket.Status != domain.TicketStatusClosed {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (m *memoryTicketRepo) ListPendingPasswordReset(ctx context.Context) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, ticket := range m.tickets {
		if ticket.RequiresPasswordReset && ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (m *memoryTicketRepo) ListPendingEscalation(ctx context.Context) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, ticket := range m.tickets {
		if ticket.IsComplexTicket && ticket.AssignedLevel == domain.SupportLevelL1 {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (m *memoryTicketRepo) DashboardStats(ctx context.Context) (*repository.DashboardStats, []repository.PriorityBucket, []repository.StageBucket, *repository.FeedbackStats, error) {
	stats := &repository.DashboardStats{Total: int64(len(m.tickets))}
	return stats, []repository.PriorityBucket{}, []repository.StageBucket{}, &repository.FeedbackStats{}, nil
}

func (m *memoryTicketRepo) WorkflowStats(ctx context.Context) ([]repository.WorkflowStageStats, *repository.AutomationMetrics, error) {
	return []repository.WorkflowStageStats{}, &repository.AutomationMetrics{TotalTickets: int64(len(m.tickets))}, nil
}

// stubAnalyzer returns a fixed judgment, or the fallback heuristic when down.
type stubAnalyzer struct {
	judgment domain.AIJudgment
	outcome  domain.AnalysisOutcome
	down     bool
	pol      policy.Policy
}

func (s *stubAnalyzer) Analyze(ctx context.Context, description string, tier domain.SLATier, issueType domain.IssueType) (domain.AIJudgment, domain.AnalysisOutcome) {
	if s.down {
		return triage.FallbackJudgment(description, tier, issueType, s.pol), domain.OutcomeUnreachable
	}
	return s.judgment, s.outcome
}

func (s *stubAnalyzer) Available(ctx context.Context) bool {
	return !s.down
}

func newTestTicketService(repo repository.TicketRepository, analyzer Analyzer) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Analyzer:   analyzer,
		Policy:     policy.Default(),
		Dispatcher: events.NewInMemoryDispatcher(),
	})
}

func validInput() TicketCreateInput {
	return TicketCreateInput{
		CustomerName:     "Jamie Fox",
		CustomerEmail:    "jamie@example.com",
		SLALevel:         domain.SLATierGold,
		IssueDescription: "The office VPN concentrator rejects every connection",
		IssueType:        domain.IssueTypeNetwork,
		TicketSource:     domain.TicketSourceEmail,
	}
}

func TestCreateTicketFullChain(t *testing.T) {
	repo := newMemoryTicketRepo()
	analyzer := &stubAnalyzer{
		judgment: domain.AIJudgment{Priority: 3, IsComplex: true, SuggestedSolution: "check concentrator"},
		outcome:  domain.OutcomeModel,
	}
	svc := newTestTicketService(repo, analyzer)

	result, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)

	ticket := result.Ticket
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, 4, ticket.SLAPriority, "Gold floor")
	assert.Equal(t, 3, ticket.AIPriority)
	// max(3,4)=4, +1 complex, +1 network, clamped to 5.
	assert.Equal(t, 5, ticket.FinalPriority)
	assert.Equal(t, domain.SupportLevelL2, ticket.AssignedLevel)
	assert.Equal(t, domain.ResolutionMethodEmail, ticket.ResolutionMethod)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.StageAICategorized, ticket.ProcessStage)
	assert.True(t, ticket.AutoResponseSent)
	assert.True(t, ticket.CustomerWaiting)
	assert.NotEmpty(t, result.AutoResponse)
	assert.Equal(t, domain.OutcomeModel, result.Outcome)

	require.Len(t, ticket.SolutionSteps, 2)
	assert.Contains(t, ticket.SolutionSteps[0].Step, "Ticket created via email")
	assert.Contains(t, ticket.SolutionSteps[1].Step, "Auto-response sent")

	stored, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageAICategorized, stored.ProcessStage)
}

func TestCreateTicketWithAnalyzerDown(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestTicketService(repo, &stubAnalyzer{down: true, pol: policy.Default()})

	input := validInput()
	input.IssueDescription = "Something about the wifi feels different lately"
	result, err := svc.CreateTicket(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeUnreachable, result.Outcome)
	// No keyword hit: default 3 bumped once for the Gold tier.
	assert.Equal(t, 4, result.Ticket.AIPriority)
	assert.Equal(t, 4, result.Ticket.SLAPriority)
	assert.True(t, result.Ticket.IsComplexTicket, "network issues are complex by category")
	assert.Equal(t, domain.SupportLevelL2, result.Ticket.AssignedLevel)
	assert.Equal(t, domain.StageAICategorized, result.Ticket.ProcessStage)
}

func TestCreateTicketMissingFields(t *testing.T) {
	svc := newTestTicketService(newMemoryTicketRepo(), &stubAnalyzer{})

	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{CustomerName: "Sam"})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Contains(t, domainErr.Message, "issue_description")
	assert.Contains(t, domainErr.Message, "issue_type")
	assert.Contains(t, domainErr.Message, "ticket_source")
}

func TestCreateTicketPublishesEvents(t *testing.T) {
	repo := newMemoryTicketRepo()
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Analyzer:   &stubAnalyzer{judgment: domain.AIJudgment{Priority: 2}, outcome: domain.OutcomeModel},
		Policy:     policy.Default(),
		Dispatcher: dispatcher,
	})

	var seen []events.EventType
	record := func(ctx context.Context, event events.Event) error {
		seen = append(seen, event.Type)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, record)
	dispatcher.Subscribe(events.EventAutoResponseSent, record)

	_, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.EventTicketCreated, events.EventAutoResponseSent}, seen)
}

func TestUpdateTicketStatusTransitions(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestTicketService(repo, &stubAnalyzer{judgment: domain.AIJudgment{Priority: 2}})
	created, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)
	id := created.Ticket.ID

	inProgress := domain.TicketStatusInProgress
	ticket, err := svc.UpdateTicket(context.Background(), id, TicketUpdateInput{Status: &inProgress, AssignedTo: "agent-7"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageBeingProcessed, ticket.ProcessStage)
	assert.Equal(t, "agent-7", ticket.AssignedTo)

	resolved := domain.TicketStatusResolved
	ticket, err = svc.UpdateTicket(context.Background(), id, TicketUpdateInput{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, domain.StageSolutionProvided, ticket.ProcessStage)
	assert.False(t, ticket.CustomerWaiting)
	require.NotNil(t, ticket.ResolvedAt)
}

func TestUpdateTicketEscalation(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestTicketService(repo, &stubAnalyzer{judgment: domain.AIJudgment{Priority: 2}})
	input := validInput()
	input.SLALevel = domain.SLATierBronze
	input.IssueType = domain.IssueTypeSoftware
	created, err := svc.CreateTicket(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, domain.SupportLevelL1, created.Ticket.AssignedLevel)

	escalated := domain.TicketStatusEscalated
	ticket, err := svc.UpdateTicket(context.Background(), created.Ticket.ID, TicketUpdateInput{Status: &escalated})
	require.NoError(t, err)
	assert.Equal(t, domain.SupportLevelL2, ticket.AssignedLevel)
	require.NotNil(t, ticket.EscalatedAt)
}

func TestSubmitFeedback(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestTicketService(repo, &stubAnalyzer{judgment: domain.AIJudgment{Priority: 2}})
	created, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)
	id := created.Ticket.ID

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.SubmitFeedback(context.Background(), id, rating, "")
		require.Error(t, err, "rating %d", rating)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	}

	ticket, err := svc.SubmitFeedback(context.Background(), id, 5, "great service")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
	assert.Equal(t, domain.StageCompleted, ticket.ProcessStage)
	require.NotNil(t, ticket.ClosedAt)
	require.NotNil(t, ticket.Feedback)
	assert.Equal(t, 5, ticket.Feedback.Rating)
	assert.Contains(t, ticket.SolutionSteps[len(ticket.SolutionSteps)-1].Step, "5/5 stars")

	// A second submission on the closed ticket is rejected.
	_, err = svc.SubmitFeedback(context.Background(), id, 3, "changed my mind")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestDeleteTicket(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestTicketService(repo, &stubAnalyzer{judgment: domain.AIJudgment{Priority: 2}})
	created, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTicket(context.Background(), created.Ticket.ID))

	_, err = svc.GetTicket(context.Background(), created.Ticket.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	err = svc.DeleteTicket(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestReanalyzeKeepsL2Sticky(t *testing.T) {
	repo := newMemoryTicketRepo()
	analyzer := &stubAnalyzer{judgment: domain.AIJudgment{Priority: 5, IsComplex: true}, outcome: domain.OutcomeModel}
	svc := newTestTicketService(repo, analyzer)
	created, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, domain.SupportLevelL2, created.Ticket.AssignedLevel)

	// Second analysis comes back tame; the ticket must not drop back to L1.
	analyzer.judgment = domain.AIJudgment{Priority: 1, IsComplex: false}
	ticket, outcome, err := svc.Reanalyze(context.Background(), created.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeModel, outcome)
	assert.Equal(t, 1, ticket.AIPriority)
	assert.Equal(t, domain.SupportLevelL2, ticket.AssignedLevel)
	assert.Contains(t, ticket.SolutionSteps[len(ticket.SolutionSteps)-1].Step, "Re-analysis")
}

func TestListByStageRejectsUnknownStage(t *testing.T) {
	svc := newTestTicketService(newMemoryTicketRepo(), &stubAnalyzer{})

	_, err := svc.ListByStage(context.Background(), domain.ProcessStage("nope"))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestDashboardStatsWithoutCache(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestTicketService(repo, &stubAnalyzer{judgment: domain.AIJudgment{Priority: 2}})
	_, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Overview.Total)
}

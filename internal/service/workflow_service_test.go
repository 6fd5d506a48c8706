package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func newTestWorkflowService(repo *memoryTicketRepo) *WorkflowService {
	return NewWorkflowService(WorkflowDependencies{
		TicketRepo: repo,
		Dispatcher: events.NewInMemoryDispatcher(),
	})
}

func seedTicket(t *testing.T, repo *memoryTicketRepo, mutate func(*domain.Ticket)) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		CustomerName:     "Robin Vega",
		SLALevel:         domain.SLATierSilver,
		IssueDescription: "email sync stopped",
		IssueType:        domain.IssueTypeEmail,
		TicketSource:     domain.TicketSourceEmail,
		FinalPriority:    3,
		AssignedLevel:    domain.SupportLevelL1,
		ResolutionMethod: domain.ResolutionMethodEmail,
		Status:           domain.TicketStatusOpen,
		ProcessStage:     domain.StageTicketCreated,
	}
	if mutate != nil {
		mutate(ticket)
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func TestAdvanceStageChain(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, nil)

	expected := []domain.ProcessStage{
		domain.StageSLAPrioritized,
		domain.StageAICategorized,
		domain.StageInSupportQueue,
		domain.StageBeingProcessed,
		domain.StageSolutionProvided,
		domain.StageFeedbackRequested,
		domain.StageCompleted,
	}
	for _, stage := range expected {
		result, err := svc.AdvanceStage(context.Background(), ticket.ID, "agent-1", "")
		require.NoError(t, err)
		require.True(t, result.Advanced)
		assert.Equal(t, stage, result.Ticket.ProcessStage)
	}

	final, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, final.Status)
	require.NotNil(t, final.ClosedAt)
	require.NotNil(t, final.ResolvedAt)
}

func TestAdvanceStageStatusSideEffects(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.ProcessStage = domain.StageInSupportQueue
	})

	result, err := svc.AdvanceStage(context.Background(), ticket.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StageBeingProcessed, result.Ticket.ProcessStage)
	assert.Equal(t, domain.TicketStatusInProgress, result.Ticket.Status)
}

func TestAdvanceStageAwaitingCustomerBranch(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.ProcessStage = domain.StageBeingProcessed
		tk.CustomerWaiting = true
	})

	result, err := svc.AdvanceStage(context.Background(), ticket.ID, "agent-2", "pinged customer")
	require.NoError(t, err)
	assert.Equal(t, domain.StageAwaitingCustomer, result.Ticket.ProcessStage)
	last := result.Ticket.SolutionSteps[len(result.Ticket.SolutionSteps)-1]
	assert.Contains(t, last.Step, "pinged customer")
	assert.Equal(t, "agent-2", last.PerformedBy)
}

func TestAdvanceStageCompletedIsTerminal(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.ProcessStage = domain.StageCompleted
		tk.Status = domain.TicketStatusClosed
	})

	result, err := svc.AdvanceStage(context.Background(), ticket.ID, "", "")
	require.NoError(t, err)
	assert.False(t, result.Advanced)
	assert.Equal(t, "Workflow already completed", result.Message)
	assert.Equal(t, domain.StageCompleted, result.Ticket.ProcessStage)
}

func TestTriggerAutomationAutoResponse(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, nil)

	result, err := svc.TriggerAutomation(context.Background(), ticket.ID, ActionSendAutoResponse)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.AutoResponse)
	assert.True(t, result.Ticket.AutoResponseSent)

	// Idempotent: the second trigger reports no work done.
	result, err = svc.TriggerAutomation(context.Background(), ticket.ID, ActionSendAutoResponse)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Auto-response already sent", result.Message)
}

func TestTriggerAutomationPasswordReset(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.RequiresPasswordReset = true
	})

	result, err := svc.TriggerAutomation(context.Background(), ticket.ID, ActionPasswordReset)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.PasswordResetSent)
	assert.Equal(t, domain.TicketStatusResolved, result.Ticket.Status)
	assert.Equal(t, domain.StageSolutionProvided, result.Ticket.ProcessStage)
	require.NotNil(t, result.Ticket.ResolvedAt)

	plain := seedTicket(t, repo, nil)
	result, err = svc.TriggerAutomation(context.Background(), plain.ID, ActionPasswordReset)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No automation needed or already performed", result.Message)
}

func TestTriggerAutomationEscalateComplex(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.IsComplexTicket = true
	})

	result, err := svc.TriggerAutomation(context.Background(), ticket.ID, ActionEscalateComplex)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Escalated)
	assert.Equal(t, domain.SupportLevelL2, result.Ticket.AssignedLevel)
	assert.Equal(t, domain.TicketStatusEscalated, result.Ticket.Status)
	require.NotNil(t, result.Ticket.EscalatedAt)

	// Already at L2 now.
	result, err = svc.TriggerAutomation(context.Background(), ticket.ID, ActionEscalateComplex)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No escalation needed", result.Message)
}

func TestTriggerAutomationInvalidAction(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	ticket := seedTicket(t, repo, nil)

	_, err := svc.TriggerAutomation(context.Background(), ticket.ID, AutomationAction("reboot_everything"))
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, "Invalid automation action", domainErr.Message)
}

func TestBulkAutomationCollectsPerTicketResults(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)

	complex1 := seedTicket(t, repo, func(tk *domain.Ticket) { tk.IsComplexTicket = true })
	simple := seedTicket(t, repo, nil)
	missing := uuid.NewString()

	results, err := svc.BulkAutomation(context.Background(), ActionEscalateComplex, []string{complex1.ID, simple.ID, missing})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "No escalation needed", results[1].Message)
	assert.False(t, results[2].Success)
	assert.Equal(t, "Ticket not found", results[2].Message)
}

func TestPendingAutomation(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)

	seedTicket(t, repo, nil)
	seedTicket(t, repo, func(tk *domain.Ticket) { tk.RequiresPasswordReset = true })
	seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.IsComplexTicket = true
		tk.AutoResponseSent = true
	})

	pending, err := svc.PendingAutomation(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending.PendingAutoResponse, 2)
	assert.Len(t, pending.PendingPasswordReset, 1)
	assert.Len(t, pending.PendingEscalation, 1)
}

func TestWorkflowStatsWithoutCache(t *testing.T) {
	repo := newMemoryTicketRepo()
	svc := newTestWorkflowService(repo)
	seedTicket(t, repo, nil)

	stats, err := svc.WorkflowStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AutomationMetrics.TotalTickets)
}

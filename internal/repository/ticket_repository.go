package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures list query parameters.
type TicketFilter struct {
	Status        *domain.TicketStatus
	AssignedLevel *domain.SupportLevel
	SLALevel      *domain.SLATier
	ProcessStage  *domain.ProcessStage
	PriorityMin   *int
	PriorityMax   *int
}

// DashboardStats aggregates the dashboard overview numbers.
type DashboardStats struct {
	Total          int64 `json:"total"`
	Open           int64 `json:"open"`
	InProgress     int64 `json:"in_progress"`
	Resolved       int64 `json:"resolved"`
	Closed         int64 `json:"closed"`
	L1             int64 `json:"l1"`
	L2             int64 `json:"l2"`
	ComplexTickets int64 `json:"complex_tickets"`
	PasswordResets int64 `json:"password_resets"`
}

// PriorityBucket is one row of the final-priority histogram.
type PriorityBucket struct {
	Priority int   `json:"priority"`
	Count    int64 `json:"count"`
}

// StageBucket is one row of the process-stage histogram.
type StageBucket struct {
	Stage domain.ProcessStage `json:"stage"`
	Count int64               `json:"count"`
}

// FeedbackStats summarizes customer satisfaction.
type FeedbackStats struct {
	AvgRating     float64 `json:"avg_rating"`
	TotalFeedback int64   `json:"total_feedback"`
}

// WorkflowStageStats aggregates per-stage workflow metrics.
type WorkflowStageStats struct {
	Stage          domain.ProcessStage `json:"stage"`
	Count          int64               `json:"count"`
	AvgPriority    float64             `json:"avg_priority"`
	ComplexTickets int64               `json:"complex_tickets"`
	PasswordResets int64               `json:"password_resets"`
}

// AutomationMetrics aggregates automation counters across all tickets.
type AutomationMetrics struct {
	TotalTickets      int64 `json:"total_tickets"`
	AutoResponsesSent int64 `json:"auto_responses_sent"`
	ComplexTickets    int64 `json:"complex_tickets"`
	PasswordResets    int64 `json:"password_resets"`
	EscalatedTickets  int64 `json:"escalated_tickets"`
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListByStage(ctx context.Context, stage domain.ProcessStage) ([]domain.Ticket, error)
	ListPendingAutoResponse(ctx context.Context) ([]domain.Ticket, error)
	ListPendingPasswordReset(ctx context.Context) ([]domain.Ticket, error)
	ListPendingEscalation(ctx context.Context) ([]domain.Ticket, error)
	DashboardStats(ctx context.Context) (*DashboardStats, []PriorityBucket, []StageBucket, *FeedbackStats, error)
	WorkflowStats(ctx context.Context) ([]WorkflowStageStats, *AutomationMetrics, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, customer_name, customer_email, customer_phone, sla_level,
       issue_description, issue_type, ticket_source,
       sla_priority, ai_priority, final_priority, assigned_level,
       is_complex_ticket, requires_password_reset, auto_response_sent, customer_waiting_for_response,
       resolution_method, status, process_stage, assigned_to, resolution_notes,
       solution_steps, customer_feedback,
       escalated_at, resolved_at, closed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	steps, feedback, err := marshalDocuments(ticket)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (customer_name, customer_email, customer_phone, sla_level,
            issue_description, issue_type, ticket_source,
            sla_priority, ai_priority, final_priority, assigned_level,
            is_complex_ticket, requires_password_reset, auto_response_sent, customer_waiting_for_response,
            resolution_method, status, process_stage, assigned_to, resolution_notes,
            solution_steps, customer_feedback)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerName,
		ticket.CustomerEmail,
		ticket.CustomerPhone,
		ticket.SLALevel,
		ticket.IssueDescription,
		ticket.IssueType,
		ticket.TicketSource,
		ticket.SLAPriority,
		ticket.AIPriority,
		ticket.FinalPriority,
		ticket.AssignedLevel,
		ticket.IsComplexTicket,
		ticket.RequiresPasswordReset,
		ticket.AutoResponseSent,
		ticket.CustomerWaiting,
		ticket.ResolutionMethod,
		ticket.Status,
		ticket.ProcessStage,
		ticket.AssignedTo,
		ticket.ResolutionNotes,
		steps,
		feedback,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	steps, feedback, err := marshalDocuments(ticket)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET sla_level=$1, sla_priority=$2, ai_priority=$3, final_priority=$4,
            assigned_level=$5, is_complex_ticket=$6, requires_password_reset=$7,
            auto_response_sent=$8, customer_waiting_for_response=$9,
            resolution_method=$10, status=$11, process_stage=$12, assigned_to=$13, resolution_notes=$14,
            solution_steps=$15, customer_feedback=$16,
            escalated_at=$17, resolved_at=$18, closed_at=$19, updated_at=NOW()
        WHERE id=$20`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.SLALevel,
		ticket.SLAPriority,
		ticket.AIPriority,
		ticket.FinalPriority,
		ticket.AssignedLevel,
		ticket.IsComplexTicket,
		ticket.RequiresPasswordReset,
		ticket.AutoResponseSent,
		ticket.CustomerWaiting,
		ticket.ResolutionMethod,
		ticket.Status,
		ticket.ProcessStage,
		ticket.AssignedTo,
		ticket.ResolutionNotes,
		steps,
		feedback,
		ticket.EscalatedAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.AssignedLevel != nil {
		args = append(args, *filter.AssignedLevel)
		clauses = append(clauses, fmt.Sprintf("assigned_level=$%d", len(args)))
	}
	if filter.SLALevel != nil {
		args = append(args, *filter.SLALevel)
		clauses = append(clauses, fmt.Sprintf("sla_level=$%d", len(args)))
	}
	if filter.ProcessStage != nil {
		args = append(args, *filter.ProcessStage)
		clauses = append(clauses, fmt.Sprintf("process_stage=$%d", len(args)))
	}
	if filter.PriorityMin != nil {
		args = append(args, *filter.PriorityMin)
		clauses = append(clauses, fmt.Sprintf("final_priority >= $%d", len(args)))
	}
	if filter.PriorityMax != nil {
		args = append(args, *filter.PriorityMax)
		clauses = append(clauses, fmt.Sprintf("final_priority <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY final_priority DESC, created_at DESC`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByStage(ctx context.Context, stage domain.ProcessStage) ([]domain.Ticket, error) {
	return r.List(ctx, TicketFilter{ProcessStage: &stage})
}

func (r *ticketRepository) ListPendingAutoResponse(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE auto_response_sent = FALSE AND status = 'open'
        ORDER BY created_at ASC`, ticketColumns)
	return r.queryTickets(ctx, query)
}

func (r *ticketRepository) ListPendingPasswordReset(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE requires_password_reset = TRUE AND status IN ('open','in_progress')
        ORDER BY created_at ASC`, ticketColumns)
	return r.queryTickets(ctx, query)
}

func (r *ticketRepository) ListPendingEscalation(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE is_complex_ticket = TRUE AND assigned_level = 'L1' AND status IN ('open','in_progress')
        ORDER BY created_at ASC`, ticketColumns)
	return r.queryTickets(ctx, query)
}

func (r *ticketRepository) DashboardStats(ctx context.Context) (*DashboardStats, []PriorityBucket, []StageBucket, *FeedbackStats, error) {
	const overviewQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'open'),
               COUNT(*) FILTER (WHERE status = 'in_progress'),
               COUNT(*) FILTER (WHERE status = 'resolved'),
               COUNT(*) FILTER (WHERE status = 'closed'),
               COUNT(*) FILTER (WHERE assigned_level = 'L1'),
               COUNT(*) FILTER (WHERE assigned_level = 'L2'),
               COUNT(*) FILTER (WHERE is_complex_ticket),
               COUNT(*) FILTER (WHERE requires_password_reset)
        FROM tickets`
	var overview DashboardStats
	if err := r.pool.QueryRow(ctx, overviewQuery).Scan(
		&overview.Total,
		&overview.Open,
		&overview.InProgress,
		&overview.Resolved,
		&overview.Closed,
		&overview.L1,
		&overview.L2,
		&overview.ComplexTickets,
		&overview.PasswordResets,
	); err != nil {
		return nil, nil, nil, nil, err
	}

	priorityRows, err := r.pool.Query(ctx,
		`SELECT final_priority, COUNT(*) FROM tickets GROUP BY final_priority ORDER BY final_priority ASC`)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer priorityRows.Close()
	var priorities []PriorityBucket
	for priorityRows.Next() {
		var bucket PriorityBucket
		if err := priorityRows.Scan(&bucket.Priority, &bucket.Count); err != nil {
			return nil, nil, nil, nil, err
		}
		priorities = append(priorities, bucket)
	}
	if err := priorityRows.Err(); err != nil {
		return nil, nil, nil, nil, err
	}

	stageRows, err := r.pool.Query(ctx,
		`SELECT process_stage, COUNT(*) FROM tickets GROUP BY process_stage ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer stageRows.Close()
	var stages []StageBucket
	for stageRows.Next() {
		var bucket StageBucket
		if err := stageRows.Scan(&bucket.Stage, &bucket.Count); err != nil {
			return nil, nil, nil, nil, err
		}
		stages = append(stages, bucket)
	}
	if err := stageRows.Err(); err != nil {
		return nil, nil, nil, nil, err
	}

	const feedbackQuery = `
        SELECT COALESCE(AVG((customer_feedback->>'rating')::numeric), 0), COUNT(*)
        FROM tickets WHERE customer_feedback IS NOT NULL`
	var feedback FeedbackStats
	if err := r.pool.QueryRow(ctx, feedbackQuery).Scan(&feedback.AvgRating, &feedback.TotalFeedback); err != nil {
		return nil, nil, nil, nil, err
	}

	return &overview, priorities, stages, &feedback, nil
}

func (r *ticketRepository) WorkflowStats(ctx context.Context) ([]WorkflowStageStats, *AutomationMetrics, error) {
	const stageQuery = `
        SELECT process_stage, COUNT(*),
               COALESCE(AVG(final_priority), 0),
               COUNT(*) FILTER (WHERE is_complex_ticket),
               COUNT(*) FILTER (WHERE requires_password_reset)
        FROM tickets GROUP BY process_stage ORDER BY COUNT(*) DESC`
	rows, err := r.pool.Query(ctx, stageQuery)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var stages []WorkflowStageStats
	for rows.Next() {
		var stat WorkflowStageStats
		if err := rows.Scan(&stat.Stage, &stat.Count, &stat.AvgPriority, &stat.ComplexTickets, &stat.PasswordResets); err != nil {
			return nil, nil, err
		}
		stages = append(stages, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	const metricsQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE auto_response_sent),
               COUNT(*) FILTER (WHERE is_complex_ticket),
               COUNT(*) FILTER (WHERE requires_password_reset),
               COUNT(*) FILTER (WHERE escalated_at IS NOT NULL)
        FROM tickets`
	var metrics AutomationMetrics
	if err := r.pool.QueryRow(ctx, metricsQuery).Scan(
		&metrics.TotalTickets,
		&metrics.AutoResponsesSent,
		&metrics.ComplexTickets,
		&metrics.PasswordResets,
		&metrics.EscalatedTickets,
	); err != nil {
		return nil, nil, err
	}

	return stages, &metrics, nil
}

func (r *ticketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func marshalDocuments(ticket *domain.Ticket) (steps []byte, feedback []byte, err error) {
	if ticket.SolutionSteps == nil {
		ticket.SolutionSteps = []domain.SolutionStep{}
	}
	steps, err = json.Marshal(ticket.SolutionSteps)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal solution steps: %w", err)
	}
	if ticket.Feedback != nil {
		feedback, err = json.Marshal(ticket.Feedback)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal feedback: %w", err)
		}
	}
	return steps, feedback, nil
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		steps    []byte
		feedback []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.CustomerName,
		&ticket.CustomerEmail,
		&ticket.CustomerPhone,
		&ticket.SLALevel,
		&ticket.IssueDescription,
		&ticket.IssueType,
		&ticket.TicketSource,
		&ticket.SLAPriority,
		&ticket.AIPriority,
		&ticket.FinalPriority,
		&ticket.AssignedLevel,
		&ticket.IsComplexTicket,
		&ticket.RequiresPasswordReset,
		&ticket.AutoResponseSent,
		&ticket.CustomerWaiting,
		&ticket.ResolutionMethod,
		&ticket.Status,
		&ticket.ProcessStage,
		&ticket.AssignedTo,
		&ticket.ResolutionNotes,
		&steps,
		&feedback,
		&ticket.EscalatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &ticket.SolutionSteps); err != nil {
			return nil, fmt.Errorf("unmarshal solution steps: %w", err)
		}
	}
	if len(feedback) > 0 {
		ticket.Feedback = &domain.CustomerFeedback{}
		if err := json.Unmarshal(feedback, ticket.Feedback); err != nil {
			return nil, fmt.Errorf("unmarshal feedback: %w", err)
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

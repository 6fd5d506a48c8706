package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerName     string              `json:"customer_name"`
	CustomerEmail    string              `json:"customer_email"`
	CustomerPhone    string              `json:"customer_phone"`
	SLALevel         domain.SLATier      `json:"sla_level"`
	IssueDescription string              `json:"issue_description"`
	IssueType        domain.IssueType    `json:"issue_type"`
	TicketSource     domain.TicketSource `json:"ticket_source"`
}

// UpdateTicketRequest payload.
type UpdateTicketRequest struct {
	Status          *domain.TicketStatus `json:"status"`
	AssignedTo      string               `json:"assigned_to"`
	SolutionStep    string               `json:"solution_step"`
	ResolutionNotes string               `json:"resolution_notes"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// TicketResponse is the wire representation of a ticket.
type TicketResponse struct {
	ID string `json:"id"`

	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	CustomerPhone string         `json:"customer_phone,omitempty"`
	SLALevel      domain.SLATier `json:"sla_level"`

	IssueDescription string              `json:"issue_description"`
	IssueType        domain.IssueType    `json:"issue_type"`
	TicketSource     domain.TicketSource `json:"ticket_source"`

	SLAPriority   int                 `json:"sla_priority"`
	AIPriority    int                 `json:"ai_priority"`
	FinalPriority int                 `json:"final_priority"`
	AssignedLevel domain.SupportLevel `json:"assigned_level"`

	IsComplexTicket       bool `json:"is_complex_ticket"`
	RequiresPasswordReset bool `json:"requires_password_reset"`
	AutoResponseSent      bool `json:"auto_response_sent"`
	CustomerWaiting       bool `json:"customer_waiting_for_response"`

	ResolutionMethod domain.ResolutionMethod `json:"resolution_method"`
	Status           domain.TicketStatus     `json:"status"`
	ProcessStage     domain.ProcessStage     `json:"process_stage"`
	AssignedTo       string                  `json:"assigned_to,omitempty"`
	ResolutionNotes  string                  `json:"resolution_notes,omitempty"`

	SolutionSteps []domain.SolutionStep    `json:"solution_steps"`
	Feedback      *domain.CustomerFeedback `json:"customer_feedback,omitempty"`

	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FromTicket maps a domain ticket to its wire representation.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                    ticket.ID,
		CustomerName:          ticket.CustomerName,
		CustomerEmail:         ticket.CustomerEmail,
		CustomerPhone:         ticket.CustomerPhone,
		SLALevel:              ticket.SLALevel,
		IssueDescription:      ticket.IssueDescription,
		IssueType:             ticket.IssueType,
		TicketSource:          ticket.TicketSource,
		SLAPriority:           ticket.SLAPriority,
		AIPriority:            ticket.AIPriority,
		FinalPriority:         ticket.FinalPriority,
		AssignedLevel:         ticket.AssignedLevel,
		IsComplexTicket:       ticket.IsComplexTicket,
		RequiresPasswordReset: ticket.RequiresPasswordReset,
		AutoResponseSent:      ticket.AutoResponseSent,
		CustomerWaiting:       ticket.CustomerWaiting,
		ResolutionMethod:      ticket.ResolutionMethod,
		Status:                ticket.Status,
		ProcessStage:          ticket.ProcessStage,
		AssignedTo:            ticket.AssignedTo,
		ResolutionNotes:       ticket.ResolutionNotes,
		SolutionSteps:         ticket.SolutionSteps,
		Feedback:              ticket.Feedback,
		EscalatedAt:           ticket.EscalatedAt,
		ResolvedAt:            ticket.ResolvedAt,
		ClosedAt:              ticket.ClosedAt,
		CreatedAt:             ticket.CreatedAt,
		UpdatedAt:             ticket.UpdatedAt,
	}
}

// FromTickets maps a slice of tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}

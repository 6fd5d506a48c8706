package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventStageAdvanced    EventType = "stage_advanced"
	EventTicketEscalated  EventType = "ticket_escalated"
	EventAutoResponseSent EventType = "auto_response_sent"
	EventFeedbackReceived EventType = "feedback_received"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	FinalPriority int                    `json:"final_priority"`
	AssignedLevel domain.SupportLevel    `json:"assigned_level"`
	SLALevel      domain.SLATier         `json:"sla_level"`
	IssueType     domain.IssueType       `json:"issue_type"`
	Outcome       domain.AnalysisOutcome `json:"analysis_outcome"`
}

// StageAdvancedPayload payload.
type StageAdvancedPayload struct {
	FromStage domain.ProcessStage `json:"from_stage"`
	ToStage   domain.ProcessStage `json:"to_stage"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	FromLevel domain.SupportLevel `json:"from_level"`
	ToLevel   domain.SupportLevel `json:"to_level"`
	Reason    string              `json:"reason"`
}

// AutoResponseSentPayload payload.
type AutoResponseSentPayload struct {
	Response string `json:"response"`
}

// FeedbackReceivedPayload payload.
type FeedbackReceivedPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

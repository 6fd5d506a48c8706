package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusWaitingCustomer TicketStatus = "waiting_customer"
	TicketStatusEscalated       TicketStatus = "escalated"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
)

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaitingCustomer,
		TicketStatusEscalated, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// SLATier enumerates customer service-level categories.
type SLATier string

const (
	SLATierGold   SLATier = "Gold"
	SLATierSilver SLATier = "Silver"
	SLATierBronze SLATier = "Bronze"
	SLATierNone   SLATier = "None"
)

// Valid reports whether the tier is a known value.
func (t SLATier) Valid() bool {
	switch t {
	case SLATierGold, SLATierSilver, SLATierBronze, SLATierNone:
		return true
	}
	return false
}

// IssueType classifies the reported problem.
type IssueType string

const (
	IssueTypeNetwork  IssueType = "network"
	IssueTypeSoftware IssueType = "software"
	IssueTypeAccess   IssueType = "access"
	IssueTypeHardware IssueType = "hardware"
	IssueTypeEmail    IssueType = "email"
	IssueTypeOther    IssueType = "other"
)

// Valid reports whether the issue type is a known value.
func (t IssueType) Valid() bool {
	switch t {
	case IssueTypeNetwork, IssueTypeSoftware, IssueTypeAccess,
		IssueTypeHardware, IssueTypeEmail, IssueTypeOther:
		return true
	}
	return false
}

// TicketSource records the channel the ticket arrived through.
type TicketSource string

const (
	TicketSourceEmail  TicketSource = "email"
	TicketSourcePhone  TicketSource = "phone"
	TicketSourceManual TicketSource = "manual"
)

// Valid reports whether the source is a known value.
func (s TicketSource) Valid() bool {
	switch s {
	case TicketSourceEmail, TicketSourcePhone, TicketSourceManual:
		return true
	}
	return false
}

// SupportLevel is the support tier a ticket is routed to.
type SupportLevel string

const (
	SupportLevelL1 SupportLevel = "L1"
	SupportLevelL2 SupportLevel = "L2"
)

// Valid reports whether the level is a known value.
func (l SupportLevel) Valid() bool {
	return l == SupportLevelL1 || l == SupportLevelL2
}

// ResolutionMethod is the channel used to deliver the resolution.
type ResolutionMethod string

const (
	ResolutionMethodPhone  ResolutionMethod = "phone"
	ResolutionMethodEmail  ResolutionMethod = "email"
	ResolutionMethodPortal ResolutionMethod = "portal"
)

// SolutionStep is one append-only history entry on a ticket.
type SolutionStep struct {
	Step        string    `json:"step"`
	Timestamp   time.Time `json:"timestamp"`
	PerformedBy string    `json:"performed_by"`
}

// CustomerFeedback captures the terminal satisfaction survey.
type CustomerFeedback struct {
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	FeedbackDate time.Time `json:"feedback_date"`
}

// Ticket is the aggregate for helpdesk support requests.
type Ticket struct {
	ID string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	SLALevel      SLATier

	IssueDescription string
	IssueType        IssueType
	TicketSource     TicketSource

	SLAPriority   int
	AIPriority    int
	FinalPriority int
	AssignedLevel SupportLevel

	IsComplexTicket       bool
	RequiresPasswordReset bool
	AutoResponseSent      bool
	CustomerWaiting       bool

	ResolutionMethod ResolutionMethod
	Status           TicketStatus
	ProcessStage     ProcessStage
	AssignedTo       string
	ResolutionNotes  string

	SolutionSteps []SolutionStep
	Feedback      *CustomerFeedback

	EscalatedAt *time.Time
	ResolvedAt  *time.Time
	ClosedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppendStep adds a history entry without touching earlier ones.
func (t *Ticket) AppendStep(step, performedBy string) {
	t.SolutionSteps = append(t.SolutionSteps, SolutionStep{
		Step:        step,
		Timestamp:   time.Now().UTC(),
		PerformedBy: performedBy,
	})
}

package dto

// AdvanceStageRequest payload.
type AdvanceStageRequest struct {
	PerformedBy string `json:"performed_by"`
	Notes       string `json:"notes"`
}

// TriggerAutomationRequest payload.
type TriggerAutomationRequest struct {
	Action string `json:"action"`
}

// BulkAutomationRequest payload.
type BulkAutomationRequest struct {
	Action    string   `json:"action"`
	TicketIDs []string `json:"ticket_ids"`
}

// AnalyzeRequest payload.
type AnalyzeRequest struct {
	IssueDescription string `json:"issue_description"`
	SLALevel         string `json:"sla_level"`
	IssueType        string `json:"issue_type"`
}

// GenerateResponseRequest carries the ticket-shaped fields the auto-response
// templates select on.
type GenerateResponseRequest struct {
	CustomerName          string `json:"customer_name"`
	FinalPriority         int    `json:"final_priority"`
	AssignedLevel         string `json:"assigned_level"`
	IsComplexTicket       bool   `json:"is_complex_ticket"`
	RequiresPasswordReset bool   `json:"requires_password_reset"`
}

package service

import (
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// GenerateAutoResponse picks the acknowledgment text for a ticket. Template
// precedence: password reset > complex issue > simple request.
func GenerateAutoResponse(ticket *domain.Ticket) string {
	name := ticket.CustomerName
	if name == "" {
		name = "Customer"
	}

	switch {
	case ticket.RequiresPasswordReset:
		return fmt.Sprintf(
			"Hello %s, we received your request. A password reset link is on its way to your registered email address. If you do not receive it within 15 minutes, please contact us again. Your ticket priority is %d/5.",
			name, ticket.FinalPriority)
	case ticket.IsComplexTicket:
		return fmt.Sprintf(
			"Hello %s, thank you for reporting this issue. It has been classified as complex and routed to our %s specialist team. Priority: %d/5. We will keep you updated on the progress.",
			name, ticket.AssignedLevel, ticket.FinalPriority)
	default:
		return fmt.Sprintf(
			"Hello %s, thank you for contacting IT support. Your request has been registered with priority %d/5 and will be handled by our %s team shortly.",
			name, ticket.FinalPriority, ticket.AssignedLevel)
	}
}

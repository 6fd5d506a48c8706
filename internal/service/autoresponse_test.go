package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestGenerateAutoResponsePrecedence(t *testing.T) {
	base := domain.Ticket{
		CustomerName:  "Dana",
		FinalPriority: 4,
		AssignedLevel: domain.SupportLevelL2,
	}

	reset := base
	reset.RequiresPasswordReset = true
	reset.IsComplexTicket = true
	assert.Contains(t, GenerateAutoResponse(&reset), "password reset", "reset template wins over complex")

	complexTicket := base
	complexTicket.IsComplexTicket = true
	msg := GenerateAutoResponse(&complexTicket)
	assert.Contains(t, msg, "complex")
	assert.Contains(t, msg, "L2")

	simple := base
	msg = GenerateAutoResponse(&simple)
	assert.Contains(t, msg, "Hello Dana")
	assert.Contains(t, msg, "4/5")
}

func TestGenerateAutoResponseAnonymousCustomer(t *testing.T) {
	msg := GenerateAutoResponse(&domain.Ticket{FinalPriority: 2, AssignedLevel: domain.SupportLevelL1})
	assert.Contains(t, msg, "Hello Customer")
}

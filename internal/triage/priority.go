// Package triage implements the priority engine: pure functions combining
// the SLA tier, issue category and AI judgment into the final priority and
// support level routing.
package triage

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
)

// SLAPriority maps a tier to its baseline priority floor (0–4).
func SLAPriority(tier domain.SLATier, pol policy.Policy) int {
	return pol.TierPriorities[tier]
}

// FinalPriority combines the AI priority with the SLA floor and category
// boosts. Starts from max(ai, sla); complexity and critical issue type each
// add one, both clamped to 5. Whether the two boosts stack is governed by
// pol.StackPriorityBoosts.
func FinalPriority(aiPriority, slaPriority int, issueType domain.IssueType, isComplex bool, pol policy.Policy) int {
	final := aiPriority
	if slaPriority > final {
		final = slaPriority
	}

	boosted := false
	if isComplex {
		final = clampPriority(final + 1)
		boosted = true
	}
	if pol.IsCriticalIssueType(issueType) && (pol.StackPriorityBoosts || !boosted) {
		final = clampPriority(final + 1)
	}
	return clampPriority(final)
}

// AssignedLevel routes the ticket to L1 or L2. Any single condition is
// sufficient for L2: complexity, a high AI priority, a high SLA floor, or a
// network issue. Access issues route to L2 only when the policy says so.
func AssignedLevel(aiPriority, slaPriority int, issueType domain.IssueType, isComplex bool, pol policy.Policy) domain.SupportLevel {
	switch {
	case isComplex:
		return domain.SupportLevelL2
	case aiPriority >= pol.L2AIThreshold:
		return domain.SupportLevelL2
	case slaPriority >= pol.L2SLAThreshold:
		return domain.SupportLevelL2
	case issueType == domain.IssueTypeNetwork:
		return domain.SupportLevelL2
	case pol.RouteAccessToL2 && issueType == domain.IssueTypeAccess:
		return domain.SupportLevelL2
	}
	return domain.SupportLevelL1
}

// ResolutionMethod picks the resolution channel from the intake channel.
func ResolutionMethod(source domain.TicketSource) domain.ResolutionMethod {
	switch source {
	case domain.TicketSourcePhone:
		return domain.ResolutionMethodPhone
	case domain.TicketSourceManual:
		return domain.ResolutionMethodPortal
	default:
		return domain.ResolutionMethodEmail
	}
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}

package triage

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
)

// FallbackJudgment is the deterministic substitute for the model judgment,
// used whenever the inference endpoint is unreachable, times out, or returns
// something undecodable. Identical input always yields an identical result.
func FallbackJudgment(description string, tier domain.SLATier, issueType domain.IssueType, pol policy.Policy) domain.AIJudgment {
	text := strings.ToLower(description)

	priority, matched := matchKeywordBand(text, pol.Keywords)
	if !matched {
		priority = pol.FallbackDefaultPriority
		// SLA-adjusted default: high-tier customers get bumped a notch.
		if SLAPriority(tier, pol) >= pol.L2SLAThreshold {
			priority = clampPriority(priority + 1)
		}
	}

	requiresReset := containsAny(text, pol.PasswordResetKeywords)
	isComplex := pol.IsComplexIssueType(issueType)

	return domain.AIJudgment{
		Priority:                priority,
		IsComplex:               isComplex,
		RequiresPasswordReset:   requiresReset,
		SuggestedSolution:       fallbackSolution(requiresReset, isComplex),
		EstimatedResolutionTime: fallbackEstimate(priority),
	}
}

// matchKeywordBand returns the highest band with a keyword hit.
func matchKeywordBand(text string, bands policy.KeywordBands) (int, bool) {
	switch {
	case containsAny(text, bands.Critical):
		return 5, true
	case containsAny(text, bands.High):
		return 4, true
	case containsAny(text, bands.Medium):
		return 3, true
	case containsAny(text, bands.Low):
		return 2, true
	case containsAny(text, bands.VeryLow):
		return 1, true
	}
	return 0, false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func fallbackSolution(requiresReset, isComplex bool) string {
	switch {
	case requiresReset:
		return "Trigger the automated password reset and confirm the customer regains access."
	case isComplex:
		return "Route to a specialist for diagnosis; gather system logs and recent change history first."
	default:
		return "Follow the standard troubleshooting checklist for the reported issue category."
	}
}

func fallbackEstimate(priority int) string {
	switch {
	case priority >= 5:
		return "2 hours"
	case priority == 4:
		return "4 hours"
	case priority == 3:
		return "1 business day"
	default:
		return "2-3 business days"
	}
}

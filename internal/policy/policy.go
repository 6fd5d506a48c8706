// Package policy holds the SLA policy document the priority engine and AI
// fallback run against. It is loaded once at startup and passed by value;
// there is no runtime mutation; changes require a restart.
package policy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// KeywordBands maps fallback priority bands to their trigger keywords.
type KeywordBands struct {
	Critical []string `json:"critical"`
	High     []string `json:"high"`
	Medium   []string `json:"medium"`
	Low      []string `json:"low"`
	VeryLow  []string `json:"very_low"`
}

// Policy is the SLA policy reference document.
type Policy struct {
	// TierPriorities is the fixed SLA tier → baseline priority map.
	TierPriorities map[domain.SLATier]int `json:"tier_priorities"`

	// CriticalIssueTypes receive a +1 final-priority boost.
	CriticalIssueTypes []domain.IssueType `json:"critical_issue_types"`

	// ComplexIssueTypes are treated as complex by the fallback heuristic.
	ComplexIssueTypes []domain.IssueType `json:"complex_issue_types"`

	// StackPriorityBoosts controls whether the complexity boost and the
	// critical-type boost accumulate. When false at most one +1 applies.
	StackPriorityBoosts bool `json:"stack_priority_boosts"`

	// RouteAccessToL2 additionally routes access-typed tickets to L2.
	RouteAccessToL2 bool `json:"route_access_to_l2"`

	// L2SLAThreshold is the sla_priority at or above which tickets go to L2.
	L2SLAThreshold int `json:"l2_sla_threshold"`

	// L2AIThreshold is the ai_priority at or above which tickets go to L2.
	L2AIThreshold int `json:"l2_ai_threshold"`

	// FallbackDefaultPriority is returned when no keyword band matches.
	FallbackDefaultPriority int `json:"fallback_default_priority"`

	Keywords              KeywordBands `json:"keywords"`
	PasswordResetKeywords []string     `json:"password_reset_keywords"`
}

// Default returns the built-in policy mirroring the shipped policy document.
func Default() Policy {
	return Policy{
		TierPriorities: map[domain.SLATier]int{
			domain.SLATierGold:   4,
			domain.SLATierSilver: 2,
			domain.SLATierBronze: 1,
			domain.SLATierNone:   0,
		},
		CriticalIssueTypes:      []domain.IssueType{domain.IssueTypeNetwork, domain.IssueTypeAccess},
		ComplexIssueTypes:       []domain.IssueType{domain.IssueTypeNetwork, domain.IssueTypeHardware},
		StackPriorityBoosts:     true,
		RouteAccessToL2:         false,
		L2SLAThreshold:          3,
		L2AIThreshold:           4,
		FallbackDefaultPriority: 3,
		Keywords: KeywordBands{
			Critical: []string{"server down", "outage", "data loss", "security breach", "ransomware", "all users affected"},
			High:     []string{"cannot work", "urgent", "asap", "crashed", "virus", "deadline"},
			Medium:   []string{"error", "not working", "slow", "problem", "broken"},
			Low:      []string{"question", "how to", "request", "new user", "installation"},
			VeryLow:  []string{"cosmetic", "typo", "suggestion", "whenever", "nice to have"},
		},
		PasswordResetKeywords: []string{"password", "passwort", "reset", "locked out", "forgot login"},
	}
}

// Load reads the policy document from path, falling back to the built-in
// defaults for any field left unset in the file.
func Load(path string) (Policy, error) {
	pol := Default()
	if path == "" {
		return pol, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pol, fmt.Errorf("read sla policy: %w", err)
	}
	if err := json.Unmarshal(data, &pol); err != nil {
		return pol, fmt.Errorf("parse sla policy: %w", err)
	}
	if err := pol.validate(); err != nil {
		return pol, err
	}
	return pol, nil
}

func (p Policy) validate() error {
	for tier, prio := range p.TierPriorities {
		if !tier.Valid() {
			return fmt.Errorf("sla policy: unknown tier %q", tier)
		}
		if prio < 0 || prio > 4 {
			return fmt.Errorf("sla policy: tier %q priority %d out of range [0,4]", tier, prio)
		}
	}
	if p.FallbackDefaultPriority < 1 || p.FallbackDefaultPriority > 5 {
		return fmt.Errorf("sla policy: fallback default %d out of range [1,5]", p.FallbackDefaultPriority)
	}
	return nil
}

// IsCriticalIssueType reports whether t gets the critical-type boost.
func (p Policy) IsCriticalIssueType(t domain.IssueType) bool {
	return containsType(p.CriticalIssueTypes, t)
}

// IsComplexIssueType reports whether t is complex by category alone.
func (p Policy) IsComplexIssueType(t domain.IssueType) bool {
	return containsType(p.ComplexIssueTypes, t)
}

func containsType(list []domain.IssueType, t domain.IssueType) bool {
	for _, candidate := range list {
		if candidate == t {
			return true
		}
	}
	return false
}

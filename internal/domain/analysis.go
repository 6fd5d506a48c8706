package domain

// AnalysisOutcome tags how an AI judgment was obtained. Every non-model
// outcome carries a fallback-produced judgment, never an error.
type AnalysisOutcome string

const (
	OutcomeModel       AnalysisOutcome = "model"
	OutcomeUnreachable AnalysisOutcome = "unreachable"
	OutcomeTimeout     AnalysisOutcome = "timeout"
	OutcomeParseError  AnalysisOutcome = "parse_error"
)

// AIJudgment is the complete analysis result for a ticket description.
type AIJudgment struct {
	Priority                int    `json:"priority"`
	IsComplex               bool   `json:"is_complex"`
	RequiresPasswordReset   bool   `json:"requires_password_reset"`
	SuggestedSolution       string `json:"suggested_solution"`
	EstimatedResolutionTime string `json:"estimated_resolution_time"`
}

package domain

// ProcessStage is the ticket's position in the fixed workflow chain.
type ProcessStage string

const (
	StageTicketCreated     ProcessStage = "ticket_created"
	StageSLAPrioritized    ProcessStage = "sla_prioritized"
	StageAICategorized     ProcessStage = "ai_categorized"
	StageInSupportQueue    ProcessStage = "in_support_queue"
	StageBeingProcessed    ProcessStage = "being_processed"
	StageAwaitingCustomer  ProcessStage = "awaiting_customer"
	StageSolutionProvided  ProcessStage = "solution_provided"
	StageFeedbackRequested ProcessStage = "feedback_requested"
	StageCompleted         ProcessStage = "completed"
)

// Stages lists every stage in forward order. awaiting_customer sits between
// being_processed and solution_provided but is only entered when the
// customer-waiting flag is set.
var Stages = []ProcessStage{
	StageTicketCreated,
	StageSLAPrioritized,
	StageAICategorized,
	StageInSupportQueue,
	StageBeingProcessed,
	StageAwaitingCustomer,
	StageSolutionProvided,
	StageFeedbackRequested,
	StageCompleted,
}

// Valid reports whether the stage is a known value.
func (s ProcessStage) Valid() bool {
	for _, stage := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}

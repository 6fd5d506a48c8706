// Package workflow implements the fixed process stage chain tickets move
// through. Stages only ever advance; there is no backward transition.
package workflow

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Next returns the stage following current. From being_processed the chain
// forks: a ticket whose customer is still expected to respond enters
// awaiting_customer, otherwise it goes straight to solution_provided.
// ok is false when current is terminal (or unknown).
func Next(current domain.ProcessStage, customerWaiting bool) (next domain.ProcessStage, ok bool) {
	switch current {
	case domain.StageTicketCreated:
		return domain.StageSLAPrioritized, true
	case domain.StageSLAPrioritized:
		return domain.StageAICategorized, true
	case domain.StageAICategorized:
		return domain.StageInSupportQueue, true
	case domain.StageInSupportQueue:
		return domain.StageBeingProcessed, true
	case domain.StageBeingProcessed:
		if customerWaiting {
			return domain.StageAwaitingCustomer, true
		}
		return domain.StageSolutionProvided, true
	case domain.StageAwaitingCustomer:
		return domain.StageSolutionProvided, true
	case domain.StageSolutionProvided:
		return domain.StageFeedbackRequested, true
	case domain.StageFeedbackRequested:
		return domain.StageCompleted, true
	}
	return current, false
}

// IsTerminal reports whether no further advance is possible.
func IsTerminal(stage domain.ProcessStage) bool {
	return stage == domain.StageCompleted
}

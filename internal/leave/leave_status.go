package leave

import (
	leaveerrors "go-leave-engine/internal/leave/errors"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusEscalated = "escalated"
	StatusRejected  = "rejected"
)

// allowedTransitions covers post-submission moves only. Submission itself
// lands directly on approved or escalated, decided by the rule engine.
var allowedTransitions = map[string][]string{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusEscalated: {StatusApproved, StatusRejected},
}

func isTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// checkTransition guards every state change. Terminal states report a
// conflict so a double approval surfaces as 409 instead of silently
// double-debiting the balance.
func checkTransition(current, target string) error {
	if isTerminal(current) {
		return leaveerrors.AlreadyProcessed(current)
	}
	for _, next := range allowedTransitions[current] {
		if next == target {
			return nil
		}
	}
	return leaveerrors.InvalidTransition(current, target)
}

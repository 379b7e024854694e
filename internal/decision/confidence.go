package decision

import "github.com/shopspring/decimal"

// Factor weights for the confidence score, summing to 100.
const (
	weightBalance     = 25.0
	weightCapacity    = 20.0
	weightConflicts   = 15.0
	weightCompliance  = 20.0
	weightHistory     = 10.0
	weightDuration    = 10.0
	capacityGoodPct   = 70.0
	capacityOkPct     = 50.0
	shortRequestDays  = 5
	mediumRequestDays = 10
)

// confidenceScore grades how comfortable an auto-approval would be, 0-100.
// It is advisory metadata for the human reviewer; the approve/escalate
// outcome is decided by the violation set alone.
func confidenceScore(in EvalInput, ectx EvalContext, violationCount int) float64 {
	score := 0.0

	if ectx.BalanceAvailable.GreaterThanOrEqual(in.TotalDays) {
		score += weightBalance
	}

	if ectx.TeamHeadcount > 0 {
		available := ectx.TeamHeadcount - ectx.ConcurrentApprovedLeave - 1
		capacity := float64(available) / float64(ectx.TeamHeadcount) * 100
		switch {
		case capacity >= capacityGoodPct:
			score += weightCapacity
		case capacity >= capacityOkPct:
			score += weightCapacity / 2
		}
	} else {
		score += weightCapacity
	}

	switch {
	case ectx.ConcurrentApprovedLeave == 0:
		score += weightConflicts
	case ectx.ConcurrentApprovedLeave <= 2:
		score += weightConflicts / 2
	}

	if violationCount == 0 {
		score += weightCompliance
	}

	// Request-history pattern analysis lives outside this core; without a
	// detected pattern the factor contributes in full.
	score += weightHistory

	switch {
	case in.TotalDays.LessThanOrEqual(decimal.NewFromInt(shortRequestDays)):
		score += weightDuration
	case in.TotalDays.LessThanOrEqual(decimal.NewFromInt(mediumRequestDays)):
		score += weightDuration / 2
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

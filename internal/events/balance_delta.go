package events

import "time"

const BalanceDeltaTopic = "hr.leave.balance.v1"

const (
	BalanceReserved = "balance.reserved"
	BalanceConsumed = "balance.consumed"
	BalanceReleased = "balance.released"
)

// BalanceDeltaEvent records every movement on a leave balance so
// downstream reporting can rebuild the ledger independently.
type BalanceDeltaEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id"`
	CompanyID    string    `json:"company_id"`
	EmployeeID   string    `json:"employee_id"`
	LeaveType    string    `json:"leave_type"`
	Year         int       `json:"year"`
	UsedDelta    string    `json:"used_delta"`
	PendingDelta string    `json:"pending_delta"`
	OccurredAt   time.Time `json:"occurred_at"`
}

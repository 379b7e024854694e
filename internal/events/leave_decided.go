package events

import "time"

const LeaveDecisionTopic = "hr.leave.decision.v1"

const (
	LeaveAutoApproved = "leave.auto_approved"
	LeaveEscalated    = "leave.escalated"
	LeaveApproved     = "leave.approved"
	LeaveRejected     = "leave.rejected"
)

// LeaveDecidedEvent is emitted once per decision, at submission and at
// each approver action.
type LeaveDecidedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	CompanyID  string    `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	Status     string    `json:"status"`
	Violations []string  `json:"violations,omitempty"`
	Confidence float64   `json:"confidence"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

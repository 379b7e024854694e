package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"go-leave-engine/internal/decision"
)

type SubmitLeaveRequest struct {
	EmployeeID string          `json:"employee_id" binding:"required,uuid"`
	LeaveType  string          `json:"leave_type" binding:"required"`
	StartDate  string          `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string          `json:"end_date" binding:"required,datetime=2006-01-02"`
	TotalDays  decimal.Decimal `json:"total_days"`
	IsHalfDay  bool            `json:"is_half_day"`
	Reason     string          `json:"reason" binding:"max=2000"`
}

type RejectLeaveRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

type LeaveResponse struct {
	ID                string               `json:"id"`
	RequestNumber     int64                `json:"request_number"`
	EmployeeID        string               `json:"employee_id"`
	LeaveType         string               `json:"leave_type"`
	StartDate         string               `json:"start_date"`
	EndDate           string               `json:"end_date"`
	TotalDays         string               `json:"total_days"`
	IsHalfDay         bool                 `json:"is_half_day"`
	Reason            string               `json:"reason,omitempty"`
	Status            string               `json:"status"`
	Confidence        float64              `json:"confidence"`
	Violations        []string             `json:"violations,omitempty"`
	Trace             []decision.RuleTrace `json:"trace,omitempty"`
	CurrentApproverID *string              `json:"current_approver_id,omitempty"`
	ApproverChain     []string             `json:"approver_chain,omitempty"`
	EscalationReason  *string              `json:"escalation_reason,omitempty"`
	RejectionReason   *string              `json:"rejection_reason,omitempty"`
	SLADeadline       time.Time            `json:"sla_deadline"`
	CreatedAt         time.Time            `json:"created_at"`
	ApprovedAt        *time.Time           `json:"approved_at,omitempty"`
	RejectedAt        *time.Time           `json:"rejected_at,omitempty"`
}

func toLeaveResponse(l *LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:               l.ID.String(),
		RequestNumber:    l.RequestNumber,
		EmployeeID:       l.EmployeeID.String(),
		LeaveType:        l.LeaveType,
		StartDate:        l.StartDate.Format("2006-01-02"),
		EndDate:          l.EndDate.Format("2006-01-02"),
		TotalDays:        l.TotalDays.String(),
		IsHalfDay:        l.IsHalfDay,
		Reason:           l.Reason,
		Status:           l.Status,
		Confidence:       l.Confidence,
		EscalationReason: l.EscalationReason,
		RejectionReason:  l.RejectionReason,
		SLADeadline:      l.SLADeadline,
		CreatedAt:        l.CreatedAt,
		ApprovedAt:       l.ApprovedAt,
		RejectedAt:       l.RejectedAt,
	}
	if l.CurrentApproverID != nil {
		id := l.CurrentApproverID.String()
		resp.CurrentApproverID = &id
	}
	return resp
}

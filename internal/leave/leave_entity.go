package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeaveRequest is the audited record of one leave submission. Rows are
// never physically deleted; terminal states are kept for reporting.
type LeaveRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestNumber int64     `gorm:"not null;index:idx_leave_requests_company_number"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company_number"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`

	LeaveType string          `gorm:"type:varchar(30);not null"`
	StartDate time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate   time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	TotalDays decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	IsHalfDay bool            `gorm:"not null;default:false"`
	Reason    string          `gorm:"type:text"`

	Status            string     `gorm:"type:varchar(20);not null;index:idx_leave_requests_status"`
	CurrentApproverID *uuid.UUID `gorm:"type:uuid;index:idx_leave_requests_approver"`
	EscalationReason  *string    `gorm:"type:text"`
	Confidence        float64    `gorm:"type:numeric(5,2);not null;default:0"`
	RuleTrace         []byte     `gorm:"type:jsonb"`
	SLADeadline       time.Time  `gorm:"column:sla_deadline;not null"`

	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	RejectedAt *time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (LeaveRequest) TableName() string { return "leave_requests" }

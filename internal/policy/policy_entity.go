package policy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Leave type codes, shared across the ledger and the rule catalogue.
const (
	LeaveTypeAnnual      = "annual"
	LeaveTypeSick        = "sick"
	LeaveTypeEmergency   = "emergency"
	LeaveTypePersonal    = "personal"
	LeaveTypeMaternity   = "maternity"
	LeaveTypePaternity   = "paternity"
	LeaveTypeBereavement = "bereavement"
	LeaveTypeStudy       = "study"
)

var knownLeaveTypes = map[string]struct{}{
	LeaveTypeAnnual:      {},
	LeaveTypeSick:        {},
	LeaveTypeEmergency:   {},
	LeaveTypePersonal:    {},
	LeaveTypeMaternity:   {},
	LeaveTypePaternity:   {},
	LeaveTypeBereavement: {},
	LeaveTypeStudy:       {},
}

func KnownLeaveType(t string) bool {
	_, ok := knownLeaveTypes[t]
	return ok
}

// CompanyRule is one row of a company's constraint-rule configuration.
// Params is rule-specific JSON validated at configuration time; evaluation
// treats undecodable params on an active rule as passing.
type CompanyRule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_company_rule"`
	RuleCode  string    `gorm:"type:varchar(40);not null;uniqueIndex:uq_company_rule"`
	IsActive  bool      `gorm:"not null;default:true"`
	Params    []byte    `gorm:"type:jsonb"`
	Version   int       `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (CompanyRule) TableName() string { return "company_rules" }

// LeaveTypeConfig holds the per-company entitlement for one leave type.
// A balance row can only be seeded when this config exists.
type LeaveTypeConfig struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_company_leave_type"`
	LeaveType         string          `gorm:"type:varchar(30);not null;uniqueIndex:uq_company_leave_type"`
	AnnualEntitlement decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	AllowNegative     bool            `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveTypeConfig) TableName() string { return "leave_type_configs" }

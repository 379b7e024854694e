package balance

import (
	"time"

	balanceerrors "go-leave-engine/internal/balance/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is the ground truth for availability: one row per
// (employee, leave type, year). All mutations happen inside the same
// transaction as the leave-request write.
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_employee_type_year"`
	LeaveType  string    `gorm:"type:varchar(30);not null;uniqueIndex:uq_balance_employee_type_year"`
	Year       int       `gorm:"not null;uniqueIndex:uq_balance_employee_type_year"`

	Entitled       decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CarriedForward decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Used           decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Pending        decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`

	// AllowNegative mirrors the leave-type config at seeding time so the
	// ledger check needs no second lookup inside the transaction.
	AllowNegative bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string { return "leave_balances" }

// Available is what a new request may still claim.
func (b *LeaveBalance) Available() decimal.Decimal {
	return b.Entitled.Add(b.CarriedForward).Sub(b.Used).Sub(b.Pending)
}

// Reserve moves days into pending. A reservation may exceed the remaining
// balance: an over-commit escalates to a human approver, who resolves it by
// approving (consuming past the entitlement) or rejecting (releasing it).
func (b *LeaveBalance) Reserve(days decimal.Decimal) error {
	if days.Sign() <= 0 {
		return balanceerrors.ErrNonPositiveDays
	}
	b.Pending = b.Pending.Add(days)
	return nil
}

// Commit moves days from pending to used. Used on approval.
func (b *LeaveBalance) Commit(days decimal.Decimal) error {
	if days.Sign() <= 0 {
		return balanceerrors.ErrNonPositiveDays
	}
	if b.Pending.LessThan(days) {
		return balanceerrors.ErrPendingUnderflow
	}
	b.Pending = b.Pending.Sub(days)
	b.Used = b.Used.Add(days)
	return nil
}

// Release frees days from pending without consuming them. Used on rejection.
func (b *LeaveBalance) Release(days decimal.Decimal) error {
	if days.Sign() <= 0 {
		return balanceerrors.ErrNonPositiveDays
	}
	if b.Pending.LessThan(days) {
		return balanceerrors.ErrPendingUnderflow
	}
	b.Pending = b.Pending.Sub(days)
	return nil
}

// ConsumeDirect debits used without a pending stop-over, for the
// auto-approve path where reservation and approval are one step. Unlike
// Reserve there is no human in the loop here, so the availability check is
// hard unless the balance explicitly allows going negative.
func (b *LeaveBalance) ConsumeDirect(days decimal.Decimal) error {
	if days.Sign() <= 0 {
		return balanceerrors.ErrNonPositiveDays
	}
	if !b.AllowNegative && b.Available().LessThan(days) {
		return balanceerrors.InsufficientBalance(b.Available())
	}
	if err := b.Reserve(days); err != nil {
		return err
	}
	return b.Commit(days)
}

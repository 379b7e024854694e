package balance

import (
	"context"
	"database/sql"

	"go-leave-engine/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// GetForUpdate locks the balance row for the duration of the caller's
	// transaction. Returns sql.ErrNoRows when the row does not exist yet.
	GetForUpdate(ctx context.Context, companyID, employeeID, leaveType string, year int) (*LeaveBalance, error)
	// Insert seeds a new balance row. A concurrent seeder winning the race
	// is tolerated: the duplicate insert is a no-op and the caller re-reads
	// the winner's row.
	Insert(ctx context.Context, b *LeaveBalance) error
	UpdateAmounts(ctx context.Context, b *LeaveBalance) error
	FindByEmployee(ctx context.Context, companyID, employeeID string, year int) ([]LeaveBalance, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) GetForUpdate(ctx context.Context, companyID, employeeID, leaveType string, year int) (*LeaveBalance, error) {
	query := `
SELECT id, company_id, employee_id, leave_type, year,
       entitled, carried_forward, used, pending, allow_negative
FROM leave_balances
WHERE company_id = $1 AND employee_id = $2 AND leave_type = $3 AND year = $4
FOR UPDATE
`
	row := r.queryer().QueryRowContext(ctx, query, companyID, employeeID, leaveType, year)

	var b LeaveBalance
	err := row.Scan(
		&b.ID,
		&b.CompanyID,
		&b.EmployeeID,
		&b.LeaveType,
		&b.Year,
		&b.Entitled,
		&b.CarriedForward,
		&b.Used,
		&b.Pending,
		&b.AllowNegative,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Insert(ctx context.Context, b *LeaveBalance) error {
	query := `
INSERT INTO leave_balances (
    id, company_id, employee_id, leave_type, year,
    entitled, carried_forward, used, pending, allow_negative,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
ON CONFLICT (employee_id, leave_type, year) DO NOTHING
`
	_, err := r.execer().ExecContext(
		ctx, query,
		b.ID, b.CompanyID, b.EmployeeID, b.LeaveType, b.Year,
		b.Entitled, b.CarriedForward, b.Used, b.Pending, b.AllowNegative,
	)
	return err
}

func (r *repository) UpdateAmounts(ctx context.Context, b *LeaveBalance) error {
	query := `
UPDATE leave_balances
SET used = $2, pending = $3, updated_at = NOW()
WHERE id = $1
`
	_, err := r.execer().ExecContext(ctx, query, b.ID, b.Used, b.Pending)
	return err
}

func (r *repository) FindByEmployee(ctx context.Context, companyID, employeeID string, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Order("leave_type ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		panic(err)
	}
	return sqlDB
}

func (r *repository) queryer() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		panic(err)
	}
	return sqlDB
}

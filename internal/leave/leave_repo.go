package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"go-leave-engine/internal/tenant"
)

// TeamContext is the snapshot of the requester's team used by the rule
// engine. It is read before the decision transaction opens, so the
// numbers are advisory rather than serialized.
type TeamContext struct {
	Headcount       int
	ConcurrentLeave int
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Insert(ctx context.Context, l *LeaveRequest) error
	// GetForUpdate locks the request row for the caller's transaction.
	// Returns sql.ErrNoRows when no row matches.
	GetForUpdate(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	UpdateTransition(ctx context.Context, l *LeaveRequest) error

	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	FindAllByCompany(ctx context.Context, companyID string, status string, limit, offset int) ([]LeaveRequest, int64, error)
	FindByApprover(ctx context.Context, companyID, approverID string) ([]LeaveRequest, error)

	EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error)
	HasOverlappingRequest(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error)
	TeamContextFor(ctx context.Context, companyID, employeeID string, start, end time.Time) (TeamContext, error)
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

func (r *repository) Insert(ctx context.Context, l *LeaveRequest) error {
	query := `
INSERT INTO leave_requests (
    id, request_number, company_id, employee_id,
    leave_type, start_date, end_date, total_days, is_half_day, reason,
    status, current_approver_id, escalation_reason, confidence, rule_trace, sla_deadline,
    created_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
`
	_, err := r.execer().ExecContext(
		ctx, query,
		l.ID, l.RequestNumber, l.CompanyID, l.EmployeeID,
		l.LeaveType, l.StartDate, l.EndDate, l.TotalDays, l.IsHalfDay, l.Reason,
		l.Status, l.CurrentApproverID, l.EscalationReason, l.Confidence, l.RuleTrace, l.SLADeadline,
		l.CreatedBy,
	)
	return err
}

func (r *repository) GetForUpdate(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	query := `
SELECT id, request_number, company_id, employee_id,
       leave_type, start_date, end_date, total_days, is_half_day, reason,
       status, current_approver_id, escalation_reason, confidence, rule_trace, sla_deadline,
       created_by, approved_by, rejection_reason, created_at, approved_at, rejected_at
FROM leave_requests
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL
FOR UPDATE
`
	row := r.queryer().QueryRowContext(ctx, query, companyID, id)

	var l LeaveRequest
	err := row.Scan(
		&l.ID, &l.RequestNumber, &l.CompanyID, &l.EmployeeID,
		&l.LeaveType, &l.StartDate, &l.EndDate, &l.TotalDays, &l.IsHalfDay, &l.Reason,
		&l.Status, &l.CurrentApproverID, &l.EscalationReason, &l.Confidence, &l.RuleTrace, &l.SLADeadline,
		&l.CreatedBy, &l.ApprovedBy, &l.RejectionReason, &l.CreatedAt, &l.ApprovedAt, &l.RejectedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) UpdateTransition(ctx context.Context, l *LeaveRequest) error {
	query := `
UPDATE leave_requests
SET status = $2, approved_by = $3, rejection_reason = $4,
    approved_at = $5, rejected_at = $6, updated_at = NOW()
WHERE id = $1
`
	_, err := r.execer().ExecContext(
		ctx, query,
		l.ID, l.Status, l.ApprovedBy, l.RejectionReason, l.ApprovedAt, l.RejectedAt,
	)
	return err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, status string, limit, offset int) ([]LeaveRequest, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.Scope(companyID))
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []LeaveRequest
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	return requests, total, err
}

func (r *repository) FindByApprover(ctx context.Context, companyID, approverID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("status = ?", StatusEscalated).
		Where("current_approver_id = ?", approverID).
		Order("sla_deadline ASC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("company_id = ?", companyID).
		Where("id = ?", employeeID).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasOverlappingRequest(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{StatusApproved, StatusEscalated}).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Count(&count).Error
	return count > 0, err
}

// TeamContextFor counts the requester's org unit colleagues and how many
// of them already hold approved or escalated leave intersecting the
// requested window. The requester is excluded from the concurrent count.
func (r *repository) TeamContextFor(ctx context.Context, companyID, employeeID string, start, end time.Time) (TeamContext, error) {
	var tc TeamContext

	headcountQuery := `
SELECT COUNT(*)
FROM employees e
WHERE e.company_id = $1
  AND e.deleted_at IS NULL
  AND e.org_unit_id = (SELECT org_unit_id FROM employees WHERE id = $2)
`
	row := r.queryer().QueryRowContext(ctx, headcountQuery, companyID, employeeID)
	if err := row.Scan(&tc.Headcount); err != nil {
		return tc, err
	}

	concurrentQuery := `
SELECT COUNT(DISTINCT lr.employee_id)
FROM leave_requests lr
JOIN employees e ON e.id = lr.employee_id
WHERE lr.company_id = $1
  AND lr.deleted_at IS NULL
  AND lr.status IN ('approved', 'escalated')
  AND lr.employee_id <> $2
  AND e.org_unit_id = (SELECT org_unit_id FROM employees WHERE id = $2)
  AND lr.start_date <= $4 AND lr.end_date >= $3
`
	row = r.queryer().QueryRowContext(ctx, concurrentQuery, companyID, employeeID, start, end)
	if err := row.Scan(&tc.ConcurrentLeave); err != nil {
		return tc, err
	}
	return tc, nil
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

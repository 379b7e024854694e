package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmployeeNode is the slice of an employee row the resolver needs.
type EmployeeNode struct {
	ID        uuid.UUID
	ManagerID *uuid.UUID
	OrgUnitID *uuid.UUID
}

// OrgUnitNode is one node of the organizational-unit tree.
type OrgUnitNode struct {
	ID       uuid.UUID
	ParentID *uuid.UUID
	HeadID   *uuid.UUID
}

//go:generate mockgen -source=hierarchy_repo.go -destination=mock/hierarchy_repo_mock.go -package=mock
type Repository interface {
	GetEmployeeNode(ctx context.Context, companyID, employeeID string) (*EmployeeNode, error)
	GetOrgUnitNode(ctx context.Context, companyID, unitID string) (*OrgUnitNode, error)
	// GetFallbackApprover returns the company-level HR fallback. Nil when
	// the company has none configured.
	GetFallbackApprover(ctx context.Context, companyID string) (*uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEmployeeNode(ctx context.Context, companyID, employeeID string) (*EmployeeNode, error) {
	var node EmployeeNode
	err := r.db.WithContext(ctx).
		Table("employees").
		Select("id", "manager_id", "org_unit_id").
		Where("company_id = ?", companyID).
		Where("deleted_at IS NULL").
		Where("id = ?", employeeID).
		Take(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *repository) GetOrgUnitNode(ctx context.Context, companyID, unitID string) (*OrgUnitNode, error) {
	var node OrgUnitNode
	err := r.db.WithContext(ctx).
		Table("org_units").
		Select("id", "parent_id", "head_id").
		Where("company_id = ?", companyID).
		Where("id = ?", unitID).
		Take(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *repository) GetFallbackApprover(ctx context.Context, companyID string) (*uuid.UUID, error) {
	var row struct {
		FallbackApproverID *uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Table("companies").
		Select("fallback_approver_id").
		Where("id = ?", companyID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return row.FallbackApproverID, nil
}

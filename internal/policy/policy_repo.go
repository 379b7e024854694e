package policy

import (
	"context"

	"go-leave-engine/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=policy_repo.go -destination=mock/policy_repo_mock.go -package=mock
type Repository interface {
	FindRulesByCompany(ctx context.Context, companyID string) ([]CompanyRule, error)
	UpsertRule(ctx context.Context, rule *CompanyRule) error
	FindLeaveTypeConfig(ctx context.Context, companyID, leaveType string) (*LeaveTypeConfig, error)
	FindAllLeaveTypeConfigs(ctx context.Context, companyID string) ([]LeaveTypeConfig, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindRulesByCompany(ctx context.Context, companyID string) ([]CompanyRule, error) {
	var rules []CompanyRule
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("rule_code ASC").
		Find(&rules).Error
	return rules, err
}

func (r *repository) UpsertRule(ctx context.Context, rule *CompanyRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}, {Name: "rule_code"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_active": rule.IsActive,
				"params":    rule.Params,
				"version":   gorm.Expr("company_rules.version + 1"),
			}),
		}).
		Create(rule).Error
}

func (r *repository) FindLeaveTypeConfig(ctx context.Context, companyID, leaveType string) (*LeaveTypeConfig, error) {
	var cfg LeaveTypeConfig
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&cfg, "leave_type = ?", leaveType).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) FindAllLeaveTypeConfigs(ctx context.Context, companyID string) ([]LeaveTypeConfig, error) {
	var cfgs []LeaveTypeConfig
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("leave_type ASC").
		Find(&cfgs).Error
	return cfgs, err
}

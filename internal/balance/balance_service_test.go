package balance_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"go-leave-engine/internal/balance"
	"go-leave-engine/internal/policy"
)

type fakeRepository struct {
	getForUpdateFn func(ctx context.Context, companyID, employeeID, leaveType string, year int) (*balance.LeaveBalance, error)
	insertFn       func(ctx context.Context, b *balance.LeaveBalance) error
	getCalls       int
	insertCalls    int
}

func (f *fakeRepository) WithTx(tx *sql.Tx) balance.Repository { return f }

func (f *fakeRepository) GetForUpdate(ctx context.Context, companyID, employeeID, leaveType string, year int) (*balance.LeaveBalance, error) {
	f.getCalls++
	return f.getForUpdateFn(ctx, companyID, employeeID, leaveType, year)
}

func (f *fakeRepository) Insert(ctx context.Context, b *balance.LeaveBalance) error {
	f.insertCalls++
	if f.insertFn != nil {
		return f.insertFn(ctx, b)
	}
	return nil
}

func (f *fakeRepository) UpdateAmounts(ctx context.Context, b *balance.LeaveBalance) error {
	return nil
}

func (f *fakeRepository) FindByEmployee(ctx context.Context, companyID, employeeID string, year int) ([]balance.LeaveBalance, error) {
	return nil, nil
}

type fakePolicyService struct {
	entitlement policy.LeaveTypeConfig
}

func (f *fakePolicyService) RuleSetFor(ctx context.Context, companyID string) (policy.RuleSet, error) {
	return policy.DefaultRuleSet(companyID), nil
}

func (f *fakePolicyService) EntitlementFor(ctx context.Context, companyID, leaveType string) (policy.LeaveTypeConfig, error) {
	return f.entitlement, nil
}

func (f *fakePolicyService) ConfigureRule(ctx context.Context, companyID string, req policy.ConfigureRuleRequest) (policy.RuleConfigResponse, error) {
	return policy.RuleConfigResponse{}, nil
}

func (f *fakePolicyService) ListRules(ctx context.Context, companyID string) ([]policy.RuleConfigResponse, error) {
	return nil, nil
}

func TestBalanceService_GetOrCreateForUpdate(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.NewString()
	employeeID := uuid.NewString()

	policySvc := &fakePolicyService{
		entitlement: policy.LeaveTypeConfig{
			LeaveType:         policy.LeaveTypeAnnual,
			AnnualEntitlement: decimal.NewFromInt(20),
		},
	}

	t.Run("returns the existing locked row", func(t *testing.T) {
		existing := &balance.LeaveBalance{ID: uuid.New(), Entitled: decimal.NewFromInt(20)}
		repo := &fakeRepository{
			getForUpdateFn: func(ctx context.Context, cid, eid, lt string, year int) (*balance.LeaveBalance, error) {
				return existing, nil
			},
		}
		svc := balance.NewService(repo, policySvc)

		b, err := svc.GetOrCreateForUpdate(ctx, repo, companyID, employeeID, policy.LeaveTypeAnnual, 2030)
		assert.NoError(t, err)
		assert.Same(t, existing, b)
		assert.Zero(t, repo.insertCalls)
	})

	t.Run("seeds and re-locks on first request", func(t *testing.T) {
		var seeded *balance.LeaveBalance
		repo := &fakeRepository{}
		repo.getForUpdateFn = func(ctx context.Context, cid, eid, lt string, year int) (*balance.LeaveBalance, error) {
			if seeded == nil {
				return nil, sql.ErrNoRows
			}
			return seeded, nil
		}
		repo.insertFn = func(ctx context.Context, b *balance.LeaveBalance) error {
			seeded = b
			return nil
		}
		svc := balance.NewService(repo, policySvc)

		b, err := svc.GetOrCreateForUpdate(ctx, repo, companyID, employeeID, policy.LeaveTypeAnnual, 2030)
		assert.NoError(t, err)
		assert.True(t, b.Entitled.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, 1, repo.insertCalls)
		assert.Equal(t, 2, repo.getCalls)
	})

	t.Run("losing the seed race yields the winner's row", func(t *testing.T) {
		// Another transaction committed the row between our empty read and
		// our insert. The insert is a no-op and the re-read must hand back
		// the winner's row, not the local seed.
		winner := &balance.LeaveBalance{
			ID:       uuid.New(),
			Entitled: decimal.NewFromInt(20),
			Used:     decimal.NewFromInt(3),
		}
		repo := &fakeRepository{}
		repo.getForUpdateFn = func(ctx context.Context, cid, eid, lt string, year int) (*balance.LeaveBalance, error) {
			if repo.getCalls == 1 {
				return nil, sql.ErrNoRows
			}
			return winner, nil
		}
		svc := balance.NewService(repo, policySvc)

		b, err := svc.GetOrCreateForUpdate(ctx, repo, companyID, employeeID, policy.LeaveTypeAnnual, 2030)
		assert.NoError(t, err)
		assert.Same(t, winner, b)
		assert.True(t, b.Used.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, 1, repo.insertCalls)
	})
}

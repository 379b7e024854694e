package balance

import (
	"context"
	"database/sql"
	"errors"

	"go-leave-engine/internal/policy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	// GetOrCreateForUpdate locks and returns the balance row, lazily
	// seeding it from the company's configured entitlement. qtx must be a
	// transaction-bound repository; the lock holds until that transaction
	// ends.
	GetOrCreateForUpdate(ctx context.Context, qtx Repository, companyID, employeeID, leaveType string, year int) (*LeaveBalance, error)
	ListByEmployee(ctx context.Context, companyID, employeeID string, year int) ([]BalanceResponse, error)
}

type service struct {
	repo          Repository
	policyService policy.Service
	logger        *zap.Logger
}

func NewService(repo Repository, policyService policy.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{repo: repo, policyService: policyService, logger: l}
}

func (s *service) GetOrCreateForUpdate(ctx context.Context, qtx Repository, companyID, employeeID, leaveType string, year int) (*LeaveBalance, error) {
	b, err := qtx.GetForUpdate(ctx, companyID, employeeID, leaveType, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	cfg, err := s.policyService.EntitlementFor(ctx, companyID, leaveType)
	if err != nil {
		return nil, err
	}

	seeded := &LeaveBalance{
		ID:            uuid.New(),
		CompanyID:     uuid.MustParse(companyID),
		EmployeeID:    uuid.MustParse(employeeID),
		LeaveType:     leaveType,
		Year:          year,
		Entitled:      cfg.AnnualEntitlement,
		AllowNegative: cfg.AllowNegative,
	}
	if err := qtx.Insert(ctx, seeded); err != nil {
		return nil, err
	}

	// Two first-ever submissions can race on the seed insert. The insert
	// is a no-op for the loser, so re-reading always locks whichever row
	// made it in.
	b, err = qtx.GetForUpdate(ctx, companyID, employeeID, leaveType, year)
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave balance seeded",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("leave_type", leaveType),
		zap.Int("year", year),
		zap.String("entitled", cfg.AnnualEntitlement.String()),
	)

	return b, nil
}

type BalanceResponse struct {
	EmployeeID     string `json:"employee_id"`
	LeaveType      string `json:"leave_type"`
	Year           int    `json:"year"`
	Entitled       string `json:"entitled"`
	CarriedForward string `json:"carried_forward"`
	Used           string `json:"used"`
	Pending        string `json:"pending"`
	Available      string `json:"available"`
}

func (s *service) ListByEmployee(ctx context.Context, companyID, employeeID string, year int) ([]BalanceResponse, error) {
	balances, err := s.repo.FindByEmployee(ctx, companyID, employeeID, year)
	if err != nil {
		return nil, err
	}

	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = BalanceResponse{
			EmployeeID:     b.EmployeeID.String(),
			LeaveType:      b.LeaveType,
			Year:           b.Year,
			Entitled:       b.Entitled.String(),
			CarriedForward: b.CarriedForward.String(),
			Used:           b.Used.String(),
			Pending:        b.Pending.String(),
			Available:      b.Available().String(),
		}
	}
	return resp, nil
}

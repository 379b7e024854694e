package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	policyerrors "go-leave-engine/internal/policy/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const ruleSetCacheTTL = 10 * time.Minute

func ruleSetCacheKey(companyID string) string {
	return "policy:rules:" + companyID
}

//go:generate mockgen -source=policy_service.go -destination=mock/policy_service_mock.go -package=mock
type Service interface {
	// RuleSetFor resolves the company's rule configuration overlaid on the
	// catalogue defaults.
	RuleSetFor(ctx context.Context, companyID string) (RuleSet, error)
	// EntitlementFor returns the configured annual entitlement for a leave
	// type, or ErrLeaveTypeNotConfigured.
	EntitlementFor(ctx context.Context, companyID, leaveType string) (LeaveTypeConfig, error)
	ConfigureRule(ctx context.Context, companyID string, req ConfigureRuleRequest) (RuleConfigResponse, error)
	ListRules(ctx context.Context, companyID string) ([]RuleConfigResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("policy.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("policy.service")
	}
	return &service{repo: repo, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func (s *service) RuleSetFor(ctx context.Context, companyID string) (RuleSet, error) {
	cacheKey := ruleSetCacheKey(companyID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var rs RuleSet
			if err := json.Unmarshal([]byte(cached), &rs); err == nil {
				return rs, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		rows, err := s.repo.FindRulesByCompany(ctx, companyID)
		if err != nil {
			return RuleSet{}, err
		}

		rs := DefaultRuleSet(companyID)
		for _, row := range rows {
			code := RuleCode(row.RuleCode)
			if _, known := rs.Rules[code]; !known {
				s.logger.Warn("skipping unknown rule code in company config",
					zap.String("company_id", companyID),
					zap.String("rule_code", row.RuleCode),
				)
				continue
			}
			rs.Rules[code] = RuleConfig{
				IsActive: row.IsActive,
				Params:   json.RawMessage(row.Params),
			}
		}

		if s.rdb != nil {
			if data, err := json.Marshal(rs); err == nil {
				s.rdb.Set(ctx, cacheKey, data, ruleSetCacheTTL)
			}
		}

		return rs, nil
	})
	if err != nil {
		return RuleSet{}, err
	}

	return v.(RuleSet), nil
}

func (s *service) EntitlementFor(ctx context.Context, companyID, leaveType string) (LeaveTypeConfig, error) {
	cfg, err := s.repo.FindLeaveTypeConfig(ctx, companyID, leaveType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveTypeConfig{}, policyerrors.ErrLeaveTypeNotConfigured
		}
		return LeaveTypeConfig{}, err
	}
	return *cfg, nil
}

type ConfigureRuleRequest struct {
	RuleCode string          `json:"rule_code"`
	IsActive bool            `json:"is_active"`
	Params   json.RawMessage `json:"params"`
}

type RuleConfigResponse struct {
	RuleCode string          `json:"rule_code"`
	IsActive bool            `json:"is_active"`
	Params   json.RawMessage `json:"params,omitempty"`
}

func (s *service) ConfigureRule(ctx context.Context, companyID string, req ConfigureRuleRequest) (RuleConfigResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RuleConfigResponse{}, policyerrors.ErrInvalidCompanyID
	}

	code := RuleCode(req.RuleCode)
	if err := validateRuleParams(code, req.Params); err != nil {
		return RuleConfigResponse{}, err
	}

	rule := &CompanyRule{
		ID:        uuid.New(),
		CompanyID: companyUUID,
		RuleCode:  req.RuleCode,
		IsActive:  req.IsActive,
		Params:    req.Params,
	}
	if err := s.repo.UpsertRule(ctx, rule); err != nil {
		return RuleConfigResponse{}, err
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, ruleSetCacheKey(companyID)).Err(); err != nil {
			s.logger.Error("rule set cache invalidation failed",
				zap.String("company_id", companyID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("company rule configured",
		zap.String("company_id", companyID),
		zap.String("rule_code", req.RuleCode),
		zap.Bool("is_active", req.IsActive),
	)

	return RuleConfigResponse{
		RuleCode: req.RuleCode,
		IsActive: req.IsActive,
		Params:   req.Params,
	}, nil
}

func (s *service) ListRules(ctx context.Context, companyID string) ([]RuleConfigResponse, error) {
	rs, err := s.RuleSetFor(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]RuleConfigResponse, 0, len(EvaluationOrder))
	for _, code := range EvaluationOrder {
		cfg, ok := rs.Config(code)
		if !ok {
			continue
		}
		resp = append(resp, RuleConfigResponse{
			RuleCode: string(code),
			IsActive: cfg.IsActive,
			Params:   cfg.Params,
		})
	}
	return resp, nil
}

// validateRuleParams enforces the parameter-bag shape at configuration
// time. Evaluation itself stays fail-open.
func validateRuleParams(code RuleCode, params json.RawMessage) error {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	dec := func(v any) error {
		if err := json.Unmarshal(params, v); err != nil {
			return fmt.Errorf("%w: %v", policyerrors.ErrInvalidRuleParams, err)
		}
		return nil
	}

	switch code {
	case RuleDurationCap:
		return dec(&DurationCapParams{})
	case RuleBalanceCheck:
		return dec(&BalanceCheckParams{})
	case RuleNoticePeriod:
		return dec(&NoticePeriodParams{})
	case RuleConsecutiveCap:
		return dec(&ConsecutiveCapParams{})
	case RuleTeamCoverage:
		return dec(&TeamCoverageParams{})
	case RuleMaxConcurrent:
		return dec(&MaxConcurrentParams{})
	case RuleMonthlyQuota:
		return dec(&MonthlyQuotaParams{})
	case RuleBlackoutDates:
		var p BlackoutDatesParams
		if err := dec(&p); err != nil {
			return err
		}
		for _, period := range p.Periods {
			if _, err := time.Parse("2006-01-02", period.StartDate); err != nil {
				return policyerrors.ErrInvalidRuleParams
			}
			if _, err := time.Parse("2006-01-02", period.EndDate); err != nil {
				return policyerrors.ErrInvalidRuleParams
			}
		}
		return nil
	case RuleHalfDayReview:
		return dec(&HalfDayReviewParams{})
	default:
		return policyerrors.ErrUnknownRuleCode
	}
}

package decision

import (
	"encoding/json"
	"fmt"
	"time"

	"go-leave-engine/internal/policy"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Status string

const (
	StatusApproved  Status = "approved"
	StatusEscalated Status = "escalated"
)

// EvalInput is the structured leave span handed to the engine. Malformed
// spans are rejected by the caller before evaluation.
type EvalInput struct {
	EmployeeID string
	LeaveType  string
	StartDate  time.Time
	EndDate    time.Time
	TotalDays  decimal.Decimal
	IsHalfDay  bool
}

// EvalContext carries the collaborator-supplied snapshot the rules need.
// It is assembled before the atomic transaction so evaluation never blocks
// on I/O.
type EvalContext struct {
	Today                   time.Time
	TeamHeadcount           int
	ConcurrentApprovedLeave int
	BalanceAvailable        decimal.Decimal
}

type Violation struct {
	RuleCode string `json:"rule_code"`
	Message  string `json:"message"`
}

// RuleTrace records one rule's evaluation for the decision metadata.
type RuleTrace struct {
	RuleCode string `json:"rule_code"`
	Active   bool   `json:"active"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

type Decision struct {
	Status     Status
	Violations []Violation
	Confidence float64
	Trace      []RuleTrace
}

// evaluator checks one rule. A nil violation means pass. A non-nil error
// means the active rule's params could not be decoded; the engine treats
// that as fail-open.
type evaluator func(in EvalInput, params json.RawMessage, ectx EvalContext) (*Violation, error)

var registry = map[policy.RuleCode]evaluator{
	policy.RuleDurationCap:    evalDurationCap,
	policy.RuleBalanceCheck:   evalBalanceCheck,
	policy.RuleNoticePeriod:   evalNoticePeriod,
	policy.RuleConsecutiveCap: evalConsecutiveCap,
	policy.RuleTeamCoverage:   evalTeamCoverage,
	policy.RuleMaxConcurrent:  evalMaxConcurrent,
	policy.RuleMonthlyQuota:   evalMonthlyQuota,
	policy.RuleBlackoutDates:  evalBlackoutDates,
	policy.RuleHalfDayReview:  evalHalfDayReview,
}

type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger ...*zap.Logger) *Engine {
	l := zap.L().Named("decision.engine")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("decision.engine")
	}
	return &Engine{logger: l}
}

// Evaluate runs every active rule, never short-circuiting, so the full
// violation set is reported. Approved iff no rule objects.
func (e *Engine) Evaluate(in EvalInput, rules policy.RuleSet, ectx EvalContext) Decision {
	violations := make([]Violation, 0)
	trace := make([]RuleTrace, 0, len(policy.EvaluationOrder))

	for _, code := range policy.EvaluationOrder {
		eval, known := registry[code]
		if !known {
			continue
		}

		cfg, configured := rules.Config(code)
		if !configured || !cfg.IsActive {
			trace = append(trace, RuleTrace{RuleCode: string(code), Active: false, Passed: true})
			continue
		}

		v, err := eval(in, cfg.Params, ectx)
		if err != nil {
			// Fail-open: a misconfigured rule must not block every
			// submission in the company. The anomaly is logged for ops.
			e.logger.Warn("active rule has malformed params, treating as pass",
				zap.String("rule_code", string(code)),
				zap.String("company_id", rules.CompanyID),
				zap.Error(err),
			)
			trace = append(trace, RuleTrace{RuleCode: string(code), Active: true, Passed: true, Message: "malformed params, skipped"})
			continue
		}

		if v != nil {
			violations = append(violations, *v)
			trace = append(trace, RuleTrace{RuleCode: string(code), Active: true, Passed: false, Message: v.Message})
			continue
		}
		trace = append(trace, RuleTrace{RuleCode: string(code), Active: true, Passed: true})
	}

	status := StatusApproved
	if len(violations) > 0 {
		status = StatusEscalated
	}

	return Decision{
		Status:     status,
		Violations: violations,
		Confidence: confidenceScore(in, ectx, len(violations)),
		Trace:      trace,
	}
}

func evalDurationCap(in EvalInput, params json.RawMessage, _ EvalContext) (*Violation, error) {
	var p policy.DurationCapParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	max, ok := p.MaxDaysByType[in.LeaveType]
	if !ok {
		return nil, nil
	}
	if in.TotalDays.GreaterThan(max) {
		return &Violation{
			RuleCode: string(policy.RuleDurationCap),
			Message:  fmt.Sprintf("maximum %s days allowed for %s, requested %s", max.String(), in.LeaveType, in.TotalDays.String()),
		}, nil
	}
	return nil, nil
}

// evalBalanceCheck flags a request that exceeds the remaining balance. An
// over-ask escalates rather than hard-failing: the ledger reserves the full
// span and the approver decides whether the over-commit stands.
func evalBalanceCheck(in EvalInput, params json.RawMessage, ectx EvalContext) (*Violation, error) {
	var p policy.BalanceCheckParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if ectx.BalanceAvailable.LessThan(in.TotalDays) {
		return &Violation{
			RuleCode: string(policy.RuleBalanceCheck),
			Message:  fmt.Sprintf("insufficient balance: %s days available, requested %s", ectx.BalanceAvailable.String(), in.TotalDays.String()),
		}, nil
	}
	return nil, nil
}

func evalNoticePeriod(in EvalInput, params json.RawMessage, ectx EvalContext) (*Violation, error) {
	var p policy.NoticePeriodParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	required, ok := p.NoticeDaysByType[in.LeaveType]
	if !ok || required <= 0 {
		return nil, nil
	}

	notice := daysBetween(ectx.Today, in.StartDate)
	if notice < required {
		return &Violation{
			RuleCode: string(policy.RuleNoticePeriod),
			Message:  fmt.Sprintf("%s requires %d days notice, got %d", in.LeaveType, required, notice),
		}, nil
	}
	return nil, nil
}

func evalConsecutiveCap(in EvalInput, params json.RawMessage, _ EvalContext) (*Violation, error) {
	var p policy.ConsecutiveCapParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	max, ok := p.MaxConsecutiveByType[in.LeaveType]
	if !ok {
		return nil, nil
	}
	if in.TotalDays.GreaterThan(max) {
		return &Violation{
			RuleCode: string(policy.RuleConsecutiveCap),
			Message:  fmt.Sprintf("maximum %s consecutive days allowed for %s, requested %s", max.String(), in.LeaveType, in.TotalDays.String()),
		}, nil
	}
	return nil, nil
}

func evalTeamCoverage(in EvalInput, params json.RawMessage, ectx EvalContext) (*Violation, error) {
	var p policy.TeamCoverageParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if p.MinAvailable <= 0 || ectx.TeamHeadcount <= 0 {
		return nil, nil
	}

	// The requester counts as absent for the window being evaluated.
	available := ectx.TeamHeadcount - ectx.ConcurrentApprovedLeave - 1
	if available < p.MinAvailable {
		return &Violation{
			RuleCode: string(policy.RuleTeamCoverage),
			Message:  fmt.Sprintf("team coverage too low: %d of %d would remain available, minimum is %d", available, ectx.TeamHeadcount, p.MinAvailable),
		}, nil
	}
	return nil, nil
}

func evalMaxConcurrent(in EvalInput, params json.RawMessage, ectx EvalContext) (*Violation, error) {
	var p policy.MaxConcurrentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if p.MaxConcurrent <= 0 {
		return nil, nil
	}
	if ectx.ConcurrentApprovedLeave >= p.MaxConcurrent {
		return &Violation{
			RuleCode: string(policy.RuleMaxConcurrent),
			Message:  fmt.Sprintf("%d team members already on leave in this period, maximum concurrent is %d", ectx.ConcurrentApprovedLeave, p.MaxConcurrent),
		}, nil
	}
	return nil, nil
}

func evalMonthlyQuota(in EvalInput, params json.RawMessage, _ EvalContext) (*Violation, error) {
	var p policy.MonthlyQuotaParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	for _, exempt := range p.ExemptTypes {
		if exempt == in.LeaveType {
			return nil, nil
		}
	}
	if p.MaxDaysPerMonth.Sign() <= 0 {
		return nil, nil
	}
	if in.TotalDays.GreaterThan(p.MaxDaysPerMonth) {
		return &Violation{
			RuleCode: string(policy.RuleMonthlyQuota),
			Message:  fmt.Sprintf("monthly quota is %s days, requested %s", p.MaxDaysPerMonth.String(), in.TotalDays.String()),
		}, nil
	}
	return nil, nil
}

func evalBlackoutDates(in EvalInput, params json.RawMessage, _ EvalContext) (*Violation, error) {
	var p policy.BlackoutDatesParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	for _, period := range p.Periods {
		start, err := time.Parse("2006-01-02", period.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := time.Parse("2006-01-02", period.EndDate)
		if err != nil {
			return nil, err
		}
		if !in.EndDate.Before(start) && !in.StartDate.After(end) {
			name := period.Name
			if name == "" {
				name = period.StartDate + ".." + period.EndDate
			}
			return &Violation{
				RuleCode: string(policy.RuleBlackoutDates),
				Message:  fmt.Sprintf("requested span overlaps blackout period %s", name),
			}, nil
		}
	}
	return nil, nil
}

func evalHalfDayReview(in EvalInput, params json.RawMessage, _ EvalContext) (*Violation, error) {
	var p policy.HalfDayReviewParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if in.IsHalfDay {
		return &Violation{
			RuleCode: string(policy.RuleHalfDayReview),
			Message:  "half-day requests require manual review",
		}, nil
	}
	return nil, nil
}

// daysBetween counts whole calendar days from a to b, ignoring clock time.
func daysBetween(a, b time.Time) int {
	at := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bt := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}

package policy

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RuleCode identifies one constraint rule in the catalogue.
type RuleCode string

const (
	RuleDurationCap    RuleCode = "duration-cap"
	RuleBalanceCheck   RuleCode = "balance-check"
	RuleNoticePeriod   RuleCode = "notice-period"
	RuleConsecutiveCap RuleCode = "consecutive-cap"
	RuleTeamCoverage   RuleCode = "team-coverage"
	RuleMaxConcurrent  RuleCode = "max-concurrent"
	RuleMonthlyQuota   RuleCode = "monthly-quota"
	RuleBlackoutDates  RuleCode = "blackout-dates"
	RuleHalfDayReview  RuleCode = "half-day-review"
)

// EvaluationOrder fixes the order rules appear in traces and violation
// lists. Outcome does not depend on it since violations accumulate.
var EvaluationOrder = []RuleCode{
	RuleDurationCap,
	RuleBalanceCheck,
	RuleNoticePeriod,
	RuleConsecutiveCap,
	RuleTeamCoverage,
	RuleMaxConcurrent,
	RuleMonthlyQuota,
	RuleBlackoutDates,
	RuleHalfDayReview,
}

// Typed parameter bags, one per rule code. Each company row stores one of
// these as JSON under its rule code.

type DurationCapParams struct {
	MaxDaysByType map[string]decimal.Decimal `json:"max_days_by_type"`
}

// BalanceCheckParams is empty today; the rule compares requested days
// against the live balance, which is context rather than configuration.
type BalanceCheckParams struct{}

type NoticePeriodParams struct {
	NoticeDaysByType map[string]int `json:"notice_days_by_type"`
}

type ConsecutiveCapParams struct {
	MaxConsecutiveByType map[string]decimal.Decimal `json:"max_consecutive_by_type"`
}

type TeamCoverageParams struct {
	MinAvailable int `json:"min_available"`
}

type MaxConcurrentParams struct {
	MaxConcurrent int `json:"max_concurrent"`
}

type MonthlyQuotaParams struct {
	MaxDaysPerMonth decimal.Decimal `json:"max_days_per_month"`
	ExemptTypes     []string        `json:"exempt_types,omitempty"`
}

type BlackoutPeriod struct {
	Name      string `json:"name,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type BlackoutDatesParams struct {
	Periods []BlackoutPeriod `json:"periods"`
}

// HalfDayReviewParams is empty today; the rule carries no thresholds.
type HalfDayReviewParams struct{}

// RuleConfig is the resolved configuration for one rule code.
type RuleConfig struct {
	IsActive bool
	Params   json.RawMessage
}

// RuleSet is a company's full resolved rule configuration. Read-only
// during evaluation.
type RuleSet struct {
	CompanyID string
	Rules     map[RuleCode]RuleConfig
}

// Config returns the configuration for a rule code and whether any exists.
func (rs RuleSet) Config(code RuleCode) (RuleConfig, bool) {
	cfg, ok := rs.Rules[code]
	return cfg, ok
}

// IsActive reports whether a rule participates in evaluation. Unknown
// codes are inactive.
func (rs RuleSet) IsActive(code RuleCode) bool {
	cfg, ok := rs.Rules[code]
	return ok && cfg.IsActive
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

package decision_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"go-leave-engine/internal/decision"
	"go-leave-engine/internal/policy"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	assert.NoError(t, err)
	return d
}

func input(t *testing.T, leaveType, start, end string, totalDays float64) decision.EvalInput {
	t.Helper()
	return decision.EvalInput{
		EmployeeID: "emp-1",
		LeaveType:  leaveType,
		StartDate:  day(t, start),
		EndDate:    day(t, end),
		TotalDays:  decimal.NewFromFloat(totalDays),
	}
}

func healthyContext(t *testing.T) decision.EvalContext {
	t.Helper()
	return decision.EvalContext{
		Today:                   day(t, "2026-03-01"),
		TeamHeadcount:           10,
		ConcurrentApprovedLeave: 1,
		BalanceAvailable:        decimal.NewFromInt(10),
	}
}

func TestEngine_Evaluate_AutoApprove(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	in := input(t, policy.LeaveTypeAnnual, "2026-03-15", "2026-03-17", 3)
	dec := engine.Evaluate(in, rules, healthyContext(t))

	assert.Equal(t, decision.StatusApproved, dec.Status)
	assert.Empty(t, dec.Violations)
	assert.InDelta(t, 92.5, dec.Confidence, 0.001)

	for _, tr := range dec.Trace {
		if tr.Active {
			assert.True(t, tr.Passed, "rule %s should pass", tr.RuleCode)
		}
	}
}

func TestEngine_Evaluate_CollectsAllViolations(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	// 25 annual days breaks the duration cap, the consecutive cap and the
	// monthly quota at once; all three must be reported.
	in := input(t, policy.LeaveTypeAnnual, "2026-04-01", "2026-04-25", 25)
	dec := engine.Evaluate(in, rules, healthyContext(t))

	assert.Equal(t, decision.StatusEscalated, dec.Status)

	codes := make([]string, 0, len(dec.Violations))
	for _, v := range dec.Violations {
		codes = append(codes, v.RuleCode)
	}
	assert.Contains(t, codes, string(policy.RuleDurationCap))
	assert.Contains(t, codes, string(policy.RuleConsecutiveCap))
	assert.Contains(t, codes, string(policy.RuleMonthlyQuota))
}

func TestEngine_Evaluate_NoticePeriod(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	// Annual leave needs 7 days notice; 2 days ahead escalates.
	in := input(t, policy.LeaveTypeAnnual, "2026-03-03", "2026-03-04", 2)
	dec := engine.Evaluate(in, rules, healthyContext(t))

	assert.Equal(t, decision.StatusEscalated, dec.Status)
	assert.Len(t, dec.Violations, 1)
	assert.Equal(t, string(policy.RuleNoticePeriod), dec.Violations[0].RuleCode)

	// Sick leave has no notice requirement; same dates pass.
	in = input(t, policy.LeaveTypeSick, "2026-03-03", "2026-03-04", 2)
	dec = engine.Evaluate(in, rules, healthyContext(t))
	assert.Equal(t, decision.StatusApproved, dec.Status)
}

func TestEngine_Evaluate_BalanceCheck(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	// Asking for more than the remaining balance escalates with the
	// insufficiency reported, it is never rejected outright.
	ectx := healthyContext(t)
	ectx.Today = day(t, "2026-02-01")
	ectx.BalanceAvailable = decimal.NewFromInt(15)

	in := input(t, policy.LeaveTypeMaternity, "2026-03-08", "2026-03-25", 18)
	dec := engine.Evaluate(in, rules, ectx)

	assert.Equal(t, decision.StatusEscalated, dec.Status)
	assert.Len(t, dec.Violations, 1)
	assert.Equal(t, string(policy.RuleBalanceCheck), dec.Violations[0].RuleCode)
	assert.Contains(t, dec.Violations[0].Message, "insufficient balance")
	assert.Contains(t, dec.Violations[0].Message, "15 days available")

	// The same ask with enough balance auto-approves.
	ectx.BalanceAvailable = decimal.NewFromInt(20)
	dec = engine.Evaluate(in, rules, ectx)
	assert.Equal(t, decision.StatusApproved, dec.Status)
}

func TestEngine_Evaluate_MaxConcurrent(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	ectx := healthyContext(t)
	ectx.TeamHeadcount = 10
	ectx.ConcurrentApprovedLeave = 2

	// Two colleagues already on leave hits the default cap of two.
	in := input(t, policy.LeaveTypeAnnual, "2026-03-15", "2026-03-16", 2)
	dec := engine.Evaluate(in, rules, ectx)

	assert.Equal(t, decision.StatusEscalated, dec.Status)
	assert.Len(t, dec.Violations, 1)
	assert.Equal(t, string(policy.RuleMaxConcurrent), dec.Violations[0].RuleCode)
	assert.Contains(t, dec.Violations[0].Message, "maximum concurrent is 2")

	// One colleague on leave stays under the cap.
	ectx.ConcurrentApprovedLeave = 1
	dec = engine.Evaluate(in, rules, ectx)
	assert.Equal(t, decision.StatusApproved, dec.Status)
}

func TestEngine_Evaluate_TeamCoverage(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	ectx := healthyContext(t)
	ectx.TeamHeadcount = 4
	ectx.ConcurrentApprovedLeave = 1

	// 4 - 1 concurrent - the requester = 2 available, below the minimum 3.
	in := input(t, policy.LeaveTypeAnnual, "2026-03-15", "2026-03-16", 2)
	dec := engine.Evaluate(in, rules, ectx)

	assert.Equal(t, decision.StatusEscalated, dec.Status)
	assert.Equal(t, string(policy.RuleTeamCoverage), dec.Violations[0].RuleCode)
}

func TestEngine_Evaluate_HalfDayAlwaysReviewed(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	in := input(t, policy.LeaveTypeAnnual, "2026-03-15", "2026-03-15", 0.5)
	in.IsHalfDay = true
	dec := engine.Evaluate(in, rules, healthyContext(t))

	assert.Equal(t, decision.StatusEscalated, dec.Status)
	assert.Len(t, dec.Violations, 1)
	assert.Equal(t, string(policy.RuleHalfDayReview), dec.Violations[0].RuleCode)
}

func TestEngine_Evaluate_BlackoutDates(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")
	rules.Rules[policy.RuleBlackoutDates] = policy.RuleConfig{
		IsActive: true,
		Params: json.RawMessage(`{"periods":[
			{"name":"year-end close","start_date":"2026-12-20","end_date":"2026-12-31"}
		]}`),
	}

	in := input(t, policy.LeaveTypeAnnual, "2026-12-28", "2026-12-30", 3)
	dec := engine.Evaluate(in, rules, healthyContext(t))

	assert.Equal(t, decision.StatusEscalated, dec.Status)
	assert.Equal(t, string(policy.RuleBlackoutDates), dec.Violations[0].RuleCode)
	assert.Contains(t, dec.Violations[0].Message, "year-end close")

	// A span that only touches the edge of the window still counts.
	in = input(t, policy.LeaveTypeAnnual, "2026-12-15", "2026-12-20", 4)
	dec = engine.Evaluate(in, rules, healthyContext(t))
	assert.Equal(t, decision.StatusEscalated, dec.Status)
}

func TestEngine_Evaluate_MalformedParamsFailOpen(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")
	rules.Rules[policy.RuleDurationCap] = policy.RuleConfig{
		IsActive: true,
		Params:   json.RawMessage(`{"max_days_by_type": "not-a-map"}`),
	}

	// 25 days would break the duration cap, but the rule is unreadable and
	// must not block the request. The other rules still apply.
	in := input(t, policy.LeaveTypeMaternity, "2026-05-01", "2026-05-25", 25)
	dec := engine.Evaluate(in, rules, decision.EvalContext{
		Today:            day(t, "2026-03-01"),
		TeamHeadcount:    20,
		BalanceAvailable: decimal.NewFromInt(30),
	})

	assert.Equal(t, decision.StatusApproved, dec.Status)

	var capTrace *decision.RuleTrace
	for i := range dec.Trace {
		if dec.Trace[i].RuleCode == string(policy.RuleDurationCap) {
			capTrace = &dec.Trace[i]
		}
	}
	assert.NotNil(t, capTrace)
	assert.True(t, capTrace.Active)
	assert.True(t, capTrace.Passed)
	assert.Contains(t, capTrace.Message, "malformed")
}

func TestEngine_Evaluate_InactiveRuleSkipped(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")
	rules.Rules[policy.RuleDurationCap] = policy.RuleConfig{
		IsActive: false,
		Params:   rules.Rules[policy.RuleDurationCap].Params,
	}

	in := input(t, policy.LeaveTypeMaternity, "2026-06-01", "2026-06-25", 25)
	ectx := healthyContext(t)
	ectx.Today = day(t, "2026-04-01")
	ectx.BalanceAvailable = decimal.NewFromInt(30)
	dec := engine.Evaluate(in, rules, ectx)

	assert.Equal(t, decision.StatusApproved, dec.Status)
}

func TestEngine_Evaluate_Deterministic(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")
	in := input(t, policy.LeaveTypeAnnual, "2026-04-01", "2026-04-25", 25)
	ectx := healthyContext(t)

	first := engine.Evaluate(in, rules, ectx)
	second := engine.Evaluate(in, rules, ectx)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Violations, second.Violations)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestEngine_Evaluate_ConfidenceDegrades(t *testing.T) {
	engine := decision.NewEngine()
	rules := policy.DefaultRuleSet("company-1")

	in := input(t, policy.LeaveTypeAnnual, "2026-03-15", "2026-03-17", 3)
	clean := engine.Evaluate(in, rules, healthyContext(t))

	strained := healthyContext(t)
	strained.TeamHeadcount = 4
	strained.ConcurrentApprovedLeave = 3
	strained.BalanceAvailable = decimal.NewFromInt(1)
	worse := engine.Evaluate(in, rules, strained)

	assert.Greater(t, clean.Confidence, worse.Confidence)
}

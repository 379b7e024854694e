package policy

import "github.com/shopspring/decimal"

func days(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// DefaultRuleSet returns the catalogue defaults applied when a company has
// not configured a rule. Companies overlay their own rows on top of this.
func DefaultRuleSet(companyID string) RuleSet {
	return RuleSet{
		CompanyID: companyID,
		Rules: map[RuleCode]RuleConfig{
			RuleDurationCap: {
				IsActive: true,
				Params: mustJSON(DurationCapParams{
					MaxDaysByType: map[string]decimal.Decimal{
						LeaveTypeAnnual:      days(20),
						LeaveTypeSick:        days(15),
						LeaveTypeEmergency:   days(5),
						LeaveTypePersonal:    days(5),
						LeaveTypeMaternity:   days(18),
						LeaveTypePaternity:   days(15),
						LeaveTypeBereavement: days(5),
						LeaveTypeStudy:       days(10),
					},
				}),
			},
			RuleBalanceCheck: {
				IsActive: true,
				Params:   mustJSON(BalanceCheckParams{}),
			},
			RuleNoticePeriod: {
				IsActive: true,
				Params: mustJSON(NoticePeriodParams{
					NoticeDaysByType: map[string]int{
						LeaveTypeAnnual:    7,
						LeaveTypeSick:      0,
						LeaveTypeEmergency: 0,
						LeaveTypePersonal:  3,
						LeaveTypeMaternity: 30,
					},
				}),
			},
			RuleConsecutiveCap: {
				IsActive: true,
				Params: mustJSON(ConsecutiveCapParams{
					MaxConsecutiveByType: map[string]decimal.Decimal{
						LeaveTypeAnnual: days(10),
						LeaveTypeSick:   days(5),
					},
				}),
			},
			RuleTeamCoverage: {
				IsActive: true,
				Params: mustJSON(TeamCoverageParams{
					MinAvailable: 3,
				}),
			},
			RuleMaxConcurrent: {
				IsActive: true,
				Params: mustJSON(MaxConcurrentParams{
					MaxConcurrent: 2,
				}),
			},
			RuleMonthlyQuota: {
				IsActive: true,
				Params: mustJSON(MonthlyQuotaParams{
					MaxDaysPerMonth: days(5),
					ExemptTypes:     []string{LeaveTypeMaternity, LeaveTypePaternity, LeaveTypeBereavement},
				}),
			},
			RuleBlackoutDates: {
				IsActive: false,
				Params:   mustJSON(BlackoutDatesParams{}),
			},
			// Half-day requests always go to a human. Default-active so the
			// review path survives companies that never touched rule config.
			RuleHalfDayReview: {
				IsActive: true,
				Params:   mustJSON(HalfDayReviewParams{}),
			},
		},
	}
}

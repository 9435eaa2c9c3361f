// Package usage describes explanation token consumption reports.
package usage

import (
	"fmt"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Bounds returns the UTC period containing t as [start, end).
// Anything other than PeriodDay is treated as a month.
func (p Period) Bounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	if p == PeriodDay {
		start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1)
	}
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Budget is the token budget state for a period.
type Budget struct {
	limit     int64
	used      int64
	remaining int64
	resetsAt  int64
}

// NewBudget creates a budget snapshot. A zero limit means unlimited and
// remaining is reported as -1.
func NewBudget(limit, used, remaining, resetsAt int64) Budget {
	return Budget{limit: limit, used: used, remaining: remaining, resetsAt: resetsAt}
}

// TokensLimit returns the token cap (0 = unlimited).
func (b *Budget) TokensLimit() int64 { return b.limit }

// TokensUsed returns tokens consumed in the period.
func (b *Budget) TokensUsed() int64 { return b.used }

// TokensRemaining returns tokens left (-1 = unlimited).
func (b *Budget) TokensRemaining() int64 { return b.remaining }

// IsExhausted reports whether a limited budget has no tokens left.
func (b *Budget) IsExhausted() bool { return b.limit > 0 && b.remaining <= 0 }

// ResetsAt returns the reset timestamp (unix millis).
func (b *Budget) ResetsAt() int64 { return b.resetsAt }

// Report is an explanation usage report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	provider    string
	budget      Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, provider string, b Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		provider:    provider,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Provider returns the explanation provider name, empty when disabled.
func (r *Report) Provider() string { return r.provider }

// Budget returns the budget status.
func (r *Report) Budget() Budget { return r.budget }

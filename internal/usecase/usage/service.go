package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/roadsafe/internal/domain/usage"
)

// Service handles explanation usage reporting.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br can be nil (unlimited mode or explanations disabled).
func New(br BudgetReader, provider string) *Service {
	return &Service{br: br, provider: provider, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period. Unknown periods
// report the current month.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	if period != domusage.PeriodDay {
		period = domusage.PeriodMonth
	}
	start, end := period.Bounds(s.now())

	b := domusage.NewBudget(0, 0, -1, end.UnixMilli())
	if s.br != nil {
		b = s.br.Budget(period)
	}
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), s.provider, b)
}

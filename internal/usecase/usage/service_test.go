package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/roadsafe/internal/domain/usage"
)

// --- Mock ---

type mockBudgetReader struct {
	budgets map[domusage.Period]domusage.Budget
	asked   []domusage.Period
}

func (m *mockBudgetReader) Budget(p domusage.Period) domusage.Budget {
	m.asked = append(m.asked, p)
	return m.budgets[p]
}

var fixedNow = time.Date(2026, 10, 18, 13, 45, 0, 0, time.UTC)

func newTestService(br BudgetReader) *Service {
	s := New(br, "openai")
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	dayEnd := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC).UnixMilli()
	br := &mockBudgetReader{budgets: map[domusage.Period]domusage.Budget{
		domusage.PeriodDay:   domusage.NewBudget(10000, 3000, 7000, dayEnd),
		domusage.PeriodMonth: domusage.NewBudget(100000, 50000, 50000, 0),
	}}
	r := newTestService(br).GetReport(context.Background(), domusage.PeriodDay)

	if r.Period() != domusage.PeriodDay {
		t.Errorf("expected period %q, got %q", domusage.PeriodDay, r.Period())
	}
	dayStart := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != dayStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", dayStart.UnixMilli(), r.PeriodStart())
	}
	if r.PeriodEnd() != dayStart.AddDate(0, 0, 1).UnixMilli() {
		t.Errorf("unexpected period end %d", r.PeriodEnd())
	}
	b := r.Budget()
	if b.TokensLimit() != 10000 || b.TokensUsed() != 3000 || b.TokensRemaining() != 7000 {
		t.Errorf("unexpected budget %+v", b)
	}
	if b.ResetsAt() != r.PeriodEnd() {
		t.Errorf("expected reset at period end")
	}
	if r.Provider() != "openai" {
		t.Errorf("expected provider openai, got %q", r.Provider())
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{budgets: map[domusage.Period]domusage.Budget{
		domusage.PeriodMonth: domusage.NewBudget(1000, 1000, 0, 0),
	}}
	r := newTestService(br).GetReport(context.Background(), domusage.PeriodMonth)

	monthStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != monthStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", monthStart.UnixMilli(), r.PeriodStart())
	}
	if r.PeriodEnd() != time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("unexpected period end %d", r.PeriodEnd())
	}
	b := r.Budget()
	if !b.IsExhausted() {
		t.Error("expected exhausted budget")
	}
}

func TestGetReport_NilBudgetReader(t *testing.T) {
	r := newTestService(nil).GetReport(context.Background(), domusage.PeriodDay)
	b := r.Budget()
	if b.TokensLimit() != 0 || b.TokensRemaining() != -1 || b.IsExhausted() {
		t.Errorf("expected unlimited budget, got %+v", b)
	}
}

func TestGetReport_UnknownPeriodFallsBackToMonth(t *testing.T) {
	br := &mockBudgetReader{}
	r := newTestService(br).GetReport(context.Background(), domusage.Period("week"))
	if r.Period() != domusage.PeriodMonth {
		t.Errorf("expected month, got %q", r.Period())
	}
	if len(br.asked) != 1 || br.asked[0] != domusage.PeriodMonth {
		t.Errorf("expected the month budget to be read, got %v", br.asked)
	}
}

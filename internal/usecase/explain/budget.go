package explain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	domusage "github.com/kailas-cloud/roadsafe/internal/domain/usage"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

const persistTimeout = 2 * time.Second

// window counts tokens for the current UTC day or month.
type window struct {
	period domusage.Period
	label  string // key segment: "daily" or "monthly"
	layout string // key suffix format
	limit  int64
	used   int64
	start  time.Time
}

// roll zeroes the counter once now has left the window.
func (w *window) roll(now time.Time) {
	if start, _ := w.period.Bounds(now); start.After(w.start) {
		w.used = 0
		w.start = start
	}
}

func (w *window) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// BudgetTracker counts explanation tokens per UTC day and month.
// Check reads in-memory state only; Record updates memory first and then
// writes behind to the store when one is attached.
type BudgetTracker struct {
	mu        sync.Mutex
	day       window
	month     window
	action    BudgetAction
	provider  string
	keyPrefix string
	store     BudgetStore
	now       func() time.Time
	logger    *zap.Logger
}

// NewBudgetTracker creates a budget tracker. A zero limit means unlimited.
func NewBudgetTracker(
	provider, keyPrefix string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	if action == "" {
		action = BudgetActionWarn
	}
	b := &BudgetTracker{
		day:       window{period: domusage.PeriodDay, label: "daily", layout: "2006-01-02", limit: dailyLimit},
		month:     window{period: domusage.PeriodMonth, label: "monthly", layout: "2006-01", limit: monthlyLimit},
		action:    action,
		provider:  provider,
		keyPrefix: keyPrefix,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
	b.day.start, _ = domusage.PeriodDay.Bounds(b.now())
	b.month.start, _ = domusage.PeriodMonth.Bounds(b.now())
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	b.rollLocked()
	for _, w := range []*window{&b.day, &b.month} {
		val, err := store.Get(ctx, b.key(w))
		if err != nil {
			b.logger.Warn("Failed to load budget counter", zap.String("window", w.label), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// key is <prefix>budget:<provider>:<daily|monthly>:<date>.
func (b *BudgetTracker) key(w *window) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", b.keyPrefix, b.provider, w.label, w.start.Format(w.layout))
}

// Check verifies the budget allows a new request.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	if !b.day.exceeded() && !b.month.exceeded() {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrExplanationBudgetExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record registers consumed tokens after a request.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollLocked()
	b.day.used += tokens
	b.month.used += tokens
	store := b.store
	keys := [2]string{b.key(&b.day), b.key(&b.month)}
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	for _, k := range keys {
		if err := store.IncrBy(ctx, k, tokens); err != nil {
			b.logger.Warn("Failed to persist budget counter", zap.String("key", k), zap.Error(err))
		}
	}
}

// Budget returns the budget snapshot for a period. Remaining is -1 when the
// period has no limit.
func (b *BudgetTracker) Budget(period domusage.Period) domusage.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	w := &b.month
	if period == domusage.PeriodDay {
		w = &b.day
	}
	_, end := w.period.Bounds(w.start)
	return domusage.NewBudget(w.limit, w.used, w.remaining(), end.UnixMilli())
}

func (b *BudgetTracker) rollLocked() {
	now := b.now()
	b.day.roll(now)
	b.month.roll(now)
}

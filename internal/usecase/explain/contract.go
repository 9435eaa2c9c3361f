package explain

import (
	"context"

	domusage "github.com/kailas-cloud/roadsafe/internal/domain/usage"
)

// BudgetStore persists budget counters across restarts.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, tokens int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetChecker gates and accounts explanation requests.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Budget(period domusage.Period) domusage.Budget
}

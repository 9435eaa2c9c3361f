package usage

import domusage "github.com/kailas-cloud/roadsafe/internal/domain/usage"

// BudgetReader reports the token budget for a period.
type BudgetReader interface {
	Budget(period domusage.Period) domusage.Budget
}

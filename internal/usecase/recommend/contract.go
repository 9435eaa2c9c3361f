package recommend

import (
	"context"

	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
)

// Searcher ranks corpus records for a query.
type Searcher interface {
	Search(ctx context.Context, query string, topN int) ([]match.Match, error)
}

// Explainer produces an explanation for ranked matches.
type Explainer interface {
	Available() bool
	Explain(ctx context.Context, query string, matches []match.Match) (string, error)
}

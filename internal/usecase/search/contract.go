package search

import (
	"context"

	"github.com/kailas-cloud/roadsafe/internal/domain/record"
)

// CorpusLoader reads the reference corpus from its persisted source.
type CorpusLoader interface {
	Load(ctx context.Context) ([]record.Record, error)
}

// Package recommend combines similarity search with optional explanations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/batch"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/request"
	"github.com/kailas-cloud/roadsafe/internal/logger"
)

// Defaults for the service options.
const (
	DefaultExplainTimeout = 20 * time.Second
	DefaultMaxBatchItems  = 50
	DefaultWorkers        = 4
)

// Result is a recommendation for one query.
type Result struct {
	Query       string
	Matches     []match.Match
	Explanation string
	RAGEnabled  bool
}

// BatchItem is one unvalidated query of a batch request.
type BatchItem struct {
	Description string
	TopN        int // 0 means request.DefaultTopN
}

// Service runs searches and attaches explanations when a provider is configured.
type Service struct {
	search         Searcher
	explain        Explainer
	explainTimeout time.Duration
	maxBatchItems  int
	workers        int
	pool           *ants.Pool
}

// Option configures a Service.
type Option func(*Service)

// WithExplainTimeout bounds each explanation call.
func WithExplainTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.explainTimeout = d
		}
	}
}

// WithBatchLimits sets the batch size cap and worker pool size.
func WithBatchLimits(maxItems, workers int) Option {
	return func(s *Service) {
		if maxItems > 0 {
			s.maxBatchItems = maxItems
		}
		if workers > 0 {
			s.workers = workers
		}
	}
}

// New creates a recommendation service. explain may be nil. Call Release
// when done to stop the batch worker pool.
func New(search Searcher, explain Explainer, opts ...Option) (*Service, error) {
	s := &Service{
		search:         search,
		explain:        explain,
		explainTimeout: DefaultExplainTimeout,
		maxBatchItems:  DefaultMaxBatchItems,
		workers:        DefaultWorkers,
	}
	for _, o := range opts {
		o(s)
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Release stops the worker pool.
func (s *Service) Release() {
	s.pool.Release()
}

// ExplanationAvailable reports whether explanations can be generated.
func (s *Service) ExplanationAvailable() bool {
	return s.explain != nil && s.explain.Available()
}

// Recommend searches for the request and explains the top matches.
func (s *Service) Recommend(ctx context.Context, req request.Request) (Result, error) {
	return s.recommend(ctx, req, true)
}

func (s *Service) recommend(ctx context.Context, req request.Request, withExplanation bool) (Result, error) {
	matches, err := s.search.Search(ctx, req.Description(), req.TopN())
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}

	res := Result{Query: req.Description(), Matches: matches}
	if !withExplanation || len(matches) == 0 || !s.ExplanationAvailable() {
		return res, nil
	}

	ectx, cancel := context.WithTimeout(ctx, s.explainTimeout)
	defer cancel()

	text, err := s.explain.Explain(ectx, req.Description(), matches)
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, domain.ErrExplanationBudgetExceeded) {
			level = zap.InfoLevel
		}
		logger.FromContext(ctx).Log(level, "Explanation skipped", zap.Error(err))
		return res, nil
	}
	res.Explanation = text
	res.RAGEnabled = text != ""
	return res, nil
}

// RecommendBatch processes items concurrently on the worker pool. Results
// keep the input order; invalid items fail individually.
func (s *Service) RecommendBatch(
	ctx context.Context, items []BatchItem, withExplanation bool,
) ([]batch.Result[Result], error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("Field \"items\" must not be empty")
	}
	if len(items) > s.maxBatchItems {
		return nil, domain.NewValidationError("Field \"items\" must contain at most %d entries", s.maxBatchItems)
	}

	results := make([]batch.Result[Result], len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.processItem(ctx, i, item, withExplanation)
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			results[i] = batch.NewError[Result](i, fmt.Errorf("submit batch item: %w", err))
		}
	}
	wg.Wait()
	return results, nil
}

func (s *Service) processItem(ctx context.Context, i int, item BatchItem, withExplanation bool) batch.Result[Result] {
	topN := item.TopN
	if topN == 0 {
		topN = request.DefaultTopN
	}
	req, err := request.New(item.Description, topN)
	if err != nil {
		return batch.NewError[Result](i, err)
	}
	res, err := s.recommend(logger.With(ctx, zap.Int("batch_item", i)), req, withExplanation)
	if err != nil {
		return batch.NewError[Result](i, err)
	}
	return batch.NewOK(i, res)
}

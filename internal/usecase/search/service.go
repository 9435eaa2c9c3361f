package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/record"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
	"github.com/kailas-cloud/roadsafe/internal/logger"
	"github.com/kailas-cloud/roadsafe/internal/metrics"
	"github.com/kailas-cloud/roadsafe/internal/tfidf"
)

// Status describes the engine cache.
type Status struct {
	Initialized    bool `json:"initialized"`
	DocumentCount  int  `json:"document_count"`
	FeatureCount   int  `json:"feature_count"`
	VocabularySize int  `json:"vocabulary_size"`
}

// index is an immutable fitted model over one corpus load.
type index struct {
	model   *tfidf.Model
	vectors []tfidf.Vector
	records []record.Record
}

// Service ranks corpus records against free-text queries by TF-IDF cosine
// similarity. The index is built lazily on first use and kept until Reset.
type Service struct {
	loader CorpusLoader
	opts   tfidf.Options

	mu  sync.RWMutex
	idx *index
}

// Option configures a Service.
type Option func(*Service)

// WithFitOptions overrides the vectorizer policy.
func WithFitOptions(opts tfidf.Options) Option {
	return func(s *Service) { s.opts = opts }
}

// New creates a search service reading its corpus from loader.
func New(loader CorpusLoader, opts ...Option) *Service {
	s := &Service{loader: loader, opts: tfidf.DefaultOptions()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initialize builds the index if it is not built yet. Concurrent callers
// share a single load; a failed load leaves the engine uninitialized.
func (s *Service) Initialize(ctx context.Context) error {
	_, err := s.ensure(ctx)
	return err
}

func (s *Service) ensure(ctx context.Context) (*index, error) {
	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		return s.idx, nil
	}

	idx, err := s.build(ctx)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.IndexBuildsTotal.WithLabelValues("success").Inc()
	metrics.IndexedDocuments.Set(float64(len(idx.records)))
	s.idx = idx
	return idx, nil
}

func (s *Service) build(ctx context.Context) (*index, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	records, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load corpus: %w", domain.ErrDataUnavailable, err)
	}
	records = record.Renumber(records)

	docs := make([]string, len(records))
	for i := range records {
		docs[i] = records[i].CombinedText()
	}

	model, vectors, err := tfidf.Fit(docs, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: fit index over %d records: %w", domain.ErrDataUnavailable, len(records), err)
	}

	log.Info("search index built",
		zap.Int("documents", len(records)),
		zap.Int("vocabulary", model.VocabularySize()),
		zap.Duration("took", time.Since(start)),
	)
	return &index{model: model, vectors: vectors, records: records}, nil
}

// Search returns up to topN records most similar to query, best first.
// Records with zero similarity are never returned. A blank query yields
// an empty result without error.
func (s *Service) Search(ctx context.Context, query string, topN int) ([]match.Match, error) {
	idx, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" || topN <= 0 {
		return []match.Match{}, nil
	}

	start := time.Now()
	out := idx.rank(query, topN)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	metrics.SearchResults.Observe(float64(len(out)))
	return out, nil
}

type scored struct {
	id    int
	score float64
}

func (idx *index) rank(query string, topN int) []match.Match {
	q := idx.model.Transform(query)
	if q.IsZero() {
		return []match.Match{}
	}

	scores := make([]scored, len(idx.vectors))
	for i, v := range idx.vectors {
		scores[i] = scored{id: i, score: tfidf.Cosine(q, v)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].id < scores[j].id
	})
	if len(scores) > topN {
		scores = scores[:topN]
	}

	out := make([]match.Match, 0, len(scores))
	for _, sc := range scores {
		if sc.score <= 0 {
			continue
		}
		r := idx.records[sc.id]
		out = append(out, match.New(sc.id, sc.score, r.Problem(), r.Data(), r.Clause()))
	}
	return out
}

// Reset drops the index. The next Initialize or Search rebuilds it from the loader.
func (s *Service) Reset() {
	s.mu.Lock()
	s.idx = nil
	s.mu.Unlock()
	metrics.IndexedDocuments.Set(0)
}

// CacheStatus reports whether the index is built and its dimensions.
func (s *Service) CacheStatus() Status {
	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()
	if idx == nil {
		return Status{}
	}
	return Status{
		Initialized:    true,
		DocumentCount:  len(idx.records),
		FeatureCount:   idx.model.VocabularySize(),
		VocabularySize: idx.model.VocabularySize(),
	}
}

// Record returns the corpus record with the given id from the current index.
func (s *Service) Record(ctx context.Context, id int) (record.Record, error) {
	idx, err := s.ensure(ctx)
	if err != nil {
		return record.Record{}, err
	}
	if id < 0 || id >= len(idx.records) {
		return record.Record{}, domain.NewValidationError("record %d out of range [0, %d)", id, len(idx.records))
	}
	return idx.records[id], nil
}

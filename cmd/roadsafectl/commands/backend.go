package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/bootstrap"
	"github.com/kailas-cloud/roadsafe/internal/config"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/request"
	"github.com/kailas-cloud/roadsafe/internal/logger"
	searchuc "github.com/kailas-cloud/roadsafe/internal/usecase/search"
	roadsafe "github.com/kailas-cloud/roadsafe/pkg/sdk"
)

const methodTFIDF = "tfidf"

// backend is what the commands need from either a local engine or a server.
type backend interface {
	Recommend(ctx context.Context, description string, topN int) (*roadsafe.Recommendation, error)
	CacheStatus(ctx context.Context) (roadsafe.CacheStatus, error)
	ResetCache(ctx context.Context) error
	Close()
}

// openBackend returns a remote backend when --url is set, otherwise a local
// engine over the configured corpus.
func openBackend(ctx context.Context) (backend, error) {
	if serverURL != "" {
		c, err := roadsafe.New(serverURL)
		if err != nil {
			return nil, fmt.Errorf("creating client: %w", err)
		}
		return &remoteBackend{client: c}, nil
	}

	env := envName
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.NewCLILogger(verbose)
	svc, closeFn, err := bootstrap.NewSearch(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating search engine: %w", err)
	}
	return &localBackend{search: svc, closeFn: closeFn, logger: log}, nil
}

// remoteBackend calls a running server through the SDK.
type remoteBackend struct {
	client *roadsafe.Client
}

func (b *remoteBackend) Recommend(ctx context.Context, description string, topN int) (*roadsafe.Recommendation, error) {
	return b.client.Recommend(ctx, description, roadsafe.TopN(topN)) //nolint:wrapcheck // SDK errors are final
}

func (b *remoteBackend) CacheStatus(ctx context.Context) (roadsafe.CacheStatus, error) {
	return b.client.CacheStatus(ctx) //nolint:wrapcheck
}

func (b *remoteBackend) ResetCache(ctx context.Context) error {
	return b.client.ResetCache(ctx) //nolint:wrapcheck
}

func (b *remoteBackend) Close() {}

// localBackend runs the engine in-process. It never produces explanations.
type localBackend struct {
	search  *searchuc.Service
	closeFn func()
	logger  *zap.Logger
}

func (b *localBackend) Recommend(ctx context.Context, description string, topN int) (*roadsafe.Recommendation, error) {
	req, err := request.New(description, topN)
	if err != nil {
		return nil, err //nolint:wrapcheck // validation message is user facing
	}
	ctx = logger.ContextWithLogger(ctx, b.logger)
	matches, err := b.search.Search(ctx, req.Description(), req.TopN())
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	rec := &roadsafe.Recommendation{
		Matches: make([]roadsafe.Match, len(matches)),
		Method:  methodTFIDF,
		Query:   req.Description(),
		Count:   len(matches),
	}
	for i := range matches {
		m := &matches[i]
		rec.Matches[i] = roadsafe.Match{
			ID:      m.ID(),
			Score:   m.Score(),
			Problem: m.Problem(),
			Data:    m.Data(),
			Clause:  m.Clause(),
		}
	}
	return rec, nil
}

func (b *localBackend) CacheStatus(ctx context.Context) (roadsafe.CacheStatus, error) {
	// Build first so the status reflects the corpus, not an empty engine.
	if err := b.search.Initialize(logger.ContextWithLogger(ctx, b.logger)); err != nil {
		return roadsafe.CacheStatus{}, fmt.Errorf("initializing: %w", err)
	}
	st := b.search.CacheStatus()
	return roadsafe.CacheStatus{
		Initialized:    st.Initialized,
		DocumentCount:  st.DocumentCount,
		FeatureCount:   st.FeatureCount,
		VocabularySize: st.VocabularySize,
	}, nil
}

func (b *localBackend) ResetCache(_ context.Context) error {
	b.search.Reset()
	return nil
}

func (b *localBackend) Close() {
	b.closeFn()
	_ = b.logger.Sync()
}

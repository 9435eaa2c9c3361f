// Package bootstrap assembles stores, corpus sources and explanation
// generators from configuration. It is shared by the server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/config"
	"github.com/kailas-cloud/roadsafe/internal/db"
	dbBadger "github.com/kailas-cloud/roadsafe/internal/db/badger"
	dbRedis "github.com/kailas-cloud/roadsafe/internal/db/redis"
	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/metrics"
	budgetrepo "github.com/kailas-cloud/roadsafe/internal/repository/budget"
	"github.com/kailas-cloud/roadsafe/internal/repository/corpus"
	"github.com/kailas-cloud/roadsafe/internal/repository/explcache"
	"github.com/kailas-cloud/roadsafe/internal/tfidf"
	"github.com/kailas-cloud/roadsafe/internal/transport/gemini"
	"github.com/kailas-cloud/roadsafe/internal/transport/langchain"
	openaiGen "github.com/kailas-cloud/roadsafe/internal/transport/openai"
	explainuc "github.com/kailas-cloud/roadsafe/internal/usecase/explain"
	searchuc "github.com/kailas-cloud/roadsafe/internal/usecase/search"
)

// OpenStore opens the configured key-value store. Driver "none" returns a nil store.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverNone:
		return nil, nil
	case config.DriverRedis, config.DriverValkey:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.DriverBadger:
		store, err = dbBadger.Open(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
	}
	return store, nil
}

// CorpusLoader creates the corpus source. The returned func releases
// source connections.
func CorpusLoader(ctx context.Context, cfg config.CorpusConfig) (searchuc.CorpusLoader, func(), error) {
	noop := func() {}
	switch cfg.Source {
	case config.SourceFile:
		return corpus.NewFileSource(cfg.Path, cfg.Encodings), noop, nil
	case config.SourceParquet:
		return corpus.NewParquetSource(cfg.Path), noop, nil
	case config.SourceS3:
		client, err := corpus.NewS3Client(ctx, corpus.S3Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Key:       cfg.S3.Key,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("s3 client: %w", err)
		}
		return corpus.NewS3Source(client, cfg.S3.Bucket, cfg.S3.Key, cfg.Encodings), noop, nil
	case config.SourcePostgres:
		pool, err := corpus.NewPostgresPool(ctx, cfg.SQL.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		src, err := corpus.NewPostgresSource(pool, cfg.SQL.Table, cfg.SQL.OrderBy)
		if err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("postgres source: %w", err)
		}
		return src, pool.Close, nil
	case config.SourceSQLite:
		sqlDB, err := corpus.OpenSQLite(cfg.SQL.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("sqlite: %w", err)
		}
		closeDB := func() { _ = sqlDB.Close() }
		src, err := corpus.NewSQLiteSource(sqlDB, cfg.SQL.Table, cfg.SQL.OrderBy)
		if err != nil {
			closeDB()
			return nil, noop, fmt.Errorf("sqlite source: %w", err)
		}
		return src, closeDB, nil
	default:
		return nil, noop, fmt.Errorf("unknown corpus source %q", cfg.Source)
	}
}

// FitOptions maps search settings to vectorizer options.
func FitOptions(cfg config.SearchConfig) (tfidf.Options, error) {
	opts := tfidf.Options{
		MaxFeatures: cfg.MaxFeatures,
		MinDF:       cfg.MinDF,
		MaxDF:       cfg.MaxDF,
		NgramMin:    cfg.NgramMin,
		NgramMax:    cfg.NgramMax,
	}
	if cfg.StopWords == "english" {
		opts.Stop = tfidf.EnglishStopWords
	}
	if err := opts.Validate(); err != nil {
		return tfidf.Options{}, fmt.Errorf("search options: %w", err)
	}
	return opts, nil
}

// BudgetTracker creates the token budget tracker, persisted when a store is available.
func BudgetTracker(ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger) *explainuc.BudgetTracker {
	b := cfg.Explain.Budget
	action := explainuc.BudgetActionWarn
	if b.Action == "reject" {
		action = explainuc.BudgetActionReject
	}
	budget := explainuc.NewBudgetTracker(
		cfg.Explain.Provider, cfg.Storage.KeyPrefix,
		b.DailyTokenLimit, b.MonthlyTokenLimit, action, logger,
	)
	if store != nil {
		// Loads current counters from the store.
		budget.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}
	return budget
}

// Generator assembles the decorator chain: provider -> Cached -> Instrumented.
// Provider "none" returns a nil generator.
func Generator(
	ctx context.Context,
	cfg config.Config,
	store db.Store,
	budget *explainuc.BudgetTracker,
	logger *zap.Logger,
) (domain.Generator, func(), error) {
	e := cfg.Explain
	closeFn := func() {}

	var base domain.Generator
	switch e.Provider {
	case config.ProviderNone:
		return nil, closeFn, nil
	case config.ProviderOpenAI:
		if e.APIKey == "" {
			logger.Warn("OpenAI API key is not set, explanations disabled")
			return nil, closeFn, nil
		}
		base = openaiGen.NewGenerator(&openaiGen.Config{
			APIKey:      e.APIKey,
			BaseURL:     e.BaseURL,
			Model:       e.Model,
			Temperature: float32(e.Temp()),
			MaxTokens:   e.MaxTokens,
			Provider:    e.Provider,
			Logger:      logger,
		})
	case config.ProviderGemini:
		if e.APIKey == "" {
			logger.Warn("Gemini API key is not set, explanations disabled")
			return nil, closeFn, nil
		}
		g, err := gemini.NewGenerator(ctx, &gemini.Config{
			APIKey:      e.APIKey,
			Model:       e.Model,
			Temperature: float32(e.Temp()),
			MaxTokens:   e.MaxTokens,
			Logger:      logger,
		})
		if err != nil {
			return nil, closeFn, fmt.Errorf("gemini: %w", err)
		}
		base = g
		closeFn = func() { _ = g.Close() }
	case config.ProviderLangChain:
		g, err := langchain.NewGenerator(&langchain.Config{
			BaseURL:     e.BaseURL,
			APIKey:      e.APIKey,
			Model:       e.Model,
			Temperature: e.Temp(),
			MaxTokens:   e.MaxTokens,
			Logger:      logger,
		})
		if err != nil {
			return nil, closeFn, fmt.Errorf("langchain: %w", err)
		}
		base = g
	default:
		return nil, closeFn, fmt.Errorf("unknown explain provider %q", e.Provider)
	}

	gen := base
	if store != nil {
		gen = explcache.New(base, store, cfg.Storage.KeyPrefix, e.Model,
			time.Duration(e.CacheTTLHours)*time.Hour, metrics.ExplainCacheTotal, logger)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var checker explainuc.BudgetChecker
	if budget != nil {
		checker = budget
	}
	return explainuc.NewInstrumentedGenerator(gen, e.Provider, e.Model, checker, logger), closeFn, nil
}

// NewSearch creates the search service over the configured corpus source.
// The returned func releases source connections.
func NewSearch(ctx context.Context, cfg config.Config) (*searchuc.Service, func(), error) {
	loader, closeLoader, err := CorpusLoader(ctx, cfg.Corpus)
	if err != nil {
		return nil, func() {}, err
	}
	opts, err := FitOptions(cfg.Search)
	if err != nil {
		closeLoader()
		return nil, func() {}, err
	}
	return searchuc.New(loader, searchuc.WithFitOptions(opts)), closeLoader, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/bootstrap"
	"github.com/kailas-cloud/roadsafe/internal/config"
	logpkg "github.com/kailas-cloud/roadsafe/internal/logger"
	"github.com/kailas-cloud/roadsafe/internal/metrics"
	chiTransport "github.com/kailas-cloud/roadsafe/internal/transport/chi"
	explainuc "github.com/kailas-cloud/roadsafe/internal/usecase/explain"
	healthuc "github.com/kailas-cloud/roadsafe/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/roadsafe/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/roadsafe/internal/usecase/usage"
	"github.com/kailas-cloud/roadsafe/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting roadsafe API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_source", cfg.Corpus.Source),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("explain_provider", cfg.Explain.Provider),
	)

	ctx := context.Background()

	store, err := bootstrap.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open key-value store", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
		logger.Info("Connected to key-value store", zap.String("driver", cfg.Database.Driver))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterExplainMetrics()

	searchSvc, closeSearch, err := bootstrap.NewSearch(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create search service", zap.Error(err))
	}
	defer closeSearch()
	if cfg.Search.WarmUp {
		if err := searchSvc.Initialize(logpkg.ContextWithLogger(ctx, logger)); err != nil {
			// Not fatal: the engine retries on the next request.
			logger.Warn("Search index warm-up failed", zap.Error(err))
		}
	}

	// Single BudgetTracker shared by the generator chain and the usage service.
	var budget *explainuc.BudgetTracker
	provider := ""
	if cfg.Explain.Provider != config.ProviderNone {
		provider = cfg.Explain.Provider
		budget = bootstrap.BudgetTracker(ctx, cfg, store, logger)
	}

	gen, closeGen, err := bootstrap.Generator(ctx, cfg, store, budget, logger)
	if err != nil {
		logger.Fatal("Failed to create explanation generator", zap.Error(err))
	}
	defer closeGen()
	if gen == nil {
		provider = ""
	} else {
		logger.Info("Explanations enabled",
			zap.String("provider", provider),
			zap.String("model", cfg.Explain.Model),
		)
	}

	explainSvc := explainuc.New(gen, cfg.Explain.ContextSize, cfg.Explain.DataMaxRunes)
	recommendSvc, err := recommenduc.New(searchSvc, explainSvc,
		recommenduc.WithExplainTimeout(time.Duration(cfg.Explain.TimeoutSec)*time.Second),
		recommenduc.WithBatchLimits(cfg.Batch.MaxItems, cfg.Batch.Workers),
	)
	if err != nil {
		logger.Fatal("Failed to create recommend service", zap.Error(err))
	}
	defer recommendSvc.Release()

	// Pass nil interfaces (not typed nil pointers) when a component is absent.
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader, provider)

	var cachePinger healthuc.Pinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(searchSvc, cachePinger, provider)

	server := chiTransport.NewServer(recommendSvc, searchSvc, healthSvc, usageSvc, provider, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Explanation-Tokens"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware)
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns the JSON envelope instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					msg := "Internal server error"
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.Envelope{OK: false, Error: &msg})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("explanation_tokens", ww.Header().Get("X-Explanation-Tokens")),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

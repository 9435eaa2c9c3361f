// Package chi exposes the recommendation API over HTTP with a chi router.
package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/batch"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/request"
	domusage "github.com/kailas-cloud/roadsafe/internal/domain/usage"
	"github.com/kailas-cloud/roadsafe/internal/logger"
	healthuc "github.com/kailas-cloud/roadsafe/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/roadsafe/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/roadsafe/internal/usecase/search"
	"github.com/kailas-cloud/roadsafe/internal/version"
)

// Client-facing messages.
const (
	msgContentType   = "Content-Type must be application/json"
	msgInvalidJSON   = "Request body must be a JSON object"
	msgMissingDesc   = "Missing required field: description"
	msgInternalError = "Internal server error"
	methodTFIDF      = "tfidf"
	apiName          = "Road Safety Recommendation API"
)

// Recommender serves single and batch recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req request.Request) (recommenduc.Result, error)
	RecommendBatch(
		ctx context.Context, items []recommenduc.BatchItem, withExplanation bool,
	) ([]batch.Result[recommenduc.Result], error)
	ExplanationAvailable() bool
}

// SearchCache exposes the engine cache controls.
type SearchCache interface {
	CacheStatus() searchuc.Status
	Reset()
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter builds explanation usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	recommend     Recommender
	cache         SearchCache
	health        HealthChecker
	usage         UsageReporter
	provider      string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. provider is empty when explanations are disabled.
func NewServer(
	recommend Recommender,
	cache SearchCache,
	health HealthChecker,
	usage UsageReporter,
	provider string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend: recommend,
		cache:     cache,
		health:    health,
		usage:     usage,
		provider:  provider,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrDataUnavailable, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Index)
	r.Post("/recommend", s.PostRecommend)
	r.Get("/recommend", s.GetRecommend)
	r.Post("/recommend/batch", s.PostRecommendBatch)
	r.Get("/health", s.HealthCheck)
	r.Get("/search/cache", s.GetCacheStatus)
	r.Post("/search/cache/reset", s.ResetCache)
	r.Get("/usage", s.GetUsage)
	r.Get("/metrics", s.Metrics)
}

// PostRecommend handles POST /recommend.
func (s *Server) PostRecommend(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r.Header.Get("Content-Type")) {
		writeEnvelopeError(w, http.StatusBadRequest, msgContentType)
		return
	}

	var body RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	req, err := requestFromBody(body)
	if err != nil {
		s.handleEnvelopeError(w, err)
		return
	}
	s.serveRecommend(w, r, req)
}

// GetRecommend handles GET /recommend?description=&top_n=.
func (s *Server) GetRecommend(w http.ResponseWriter, r *http.Request) {
	var params RecommendParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "description", q, &params.Description); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, msgMissingDesc)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_n", q, &params.TopN); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, topNMessage())
		return
	}

	description := ""
	if params.Description != nil {
		description = *params.Description
	}
	topN := request.DefaultTopN
	if params.TopN != nil {
		topN = *params.TopN
	}

	req, err := request.New(description, topN)
	if err != nil {
		s.handleEnvelopeError(w, err)
		return
	}
	s.serveRecommend(w, r, req)
}

func (s *Server) serveRecommend(w http.ResponseWriter, r *http.Request, req request.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.recommend.Recommend(ctx, req)
	if err != nil {
		s.handleEnvelopeError(w, err)
		return
	}
	setExplanationHeaders(w, usage)
	writeJSON(w, http.StatusOK, Envelope{OK: true, Data: recommendDataFrom(res)})
}

// PostRecommendBatch handles POST /recommend/batch.
func (s *Server) PostRecommendBatch(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r.Header.Get("Content-Type")) {
		writeEnvelopeError(w, http.StatusBadRequest, msgContentType)
		return
	}

	var body BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	items := make([]recommenduc.BatchItem, len(body.Items))
	for i, it := range body.Items {
		items[i] = batchItemFromBody(it)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.recommend.RecommendBatch(ctx, items, body.Explain)
	if err != nil {
		s.handleEnvelopeError(w, err)
		return
	}

	data := BatchData{Items: make([]BatchItemResult, len(results))}
	for i, res := range results {
		item := BatchItemResult{Index: res.Index()}
		if res.Status() == batch.StatusOK {
			d := recommendDataFrom(res.Value())
			item.OK = true
			item.Data = &d
			data.Succeeded++
		} else {
			msg := s.safeMessage(res.Err())
			item.Error = &msg
			data.Failed++
		}
		data.Items[i] = item
	}
	setExplanationHeaders(w, usage)
	writeJSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:               string(report.Status),
		ExplanationAvailable: report.ExplanationAvailable,
		Provider:             report.Provider,
		Checks:               checks,
	})
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Name:    apiName,
		Version: version.Version,
		Endpoints: map[string]string{
			"POST /recommend":          "Get recommendations",
			"GET /recommend":           "Get recommendations via query parameters",
			"POST /recommend/batch":    "Get recommendations for several descriptions",
			"GET /health":              "Health check",
			"GET /search/cache":        "Search index status",
			"POST /search/cache/reset": "Rebuild the search index on next request",
			"GET /usage":               "Explanation token usage",
			"GET /metrics":             "Prometheus metrics",
			"GET /":                    "API info",
		},
		Features: map[string]any{
			"tfidf_search":         true,
			"explanations":         s.recommend.ExplanationAvailable(),
			"explanation_provider": s.provider,
		},
	})
}

// GetCacheStatus handles GET /search/cache.
func (s *Server) GetCacheStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.cache.CacheStatus()
	writeJSON(w, http.StatusOK, CacheStatusResponse{
		Initialized:    st.Initialized,
		DocumentCount:  st.DocumentCount,
		FeatureCount:   st.FeatureCount,
		VocabularySize: st.VocabularySize,
	})
}

// ResetCache handles POST /search/cache/reset.
func (s *Server) ResetCache(w http.ResponseWriter, r *http.Request) {
	s.cache.Reset()
	logger.FromContext(r.Context()).Info("search cache reset")
	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid period")
		return
	}
	p := ""
	if raw != nil {
		p = *raw
	}
	period, err := domusage.ParsePeriod(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "period must be day or month")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()
	resp := UsageResponse{
		Period:        string(report.Period()),
		Provider:      report.Provider(),
		PeriodStartAt: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEndAt:   time.UnixMilli(report.PeriodEnd()).UTC(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensUsed:      b.TokensUsed(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}
	if b.ResetsAt() > 0 {
		resetsAt := time.UnixMilli(b.ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// requestFromBody applies the POST /recommend field rules: description must
// be a non-blank string and top_n, when present, a JSON integer.
func requestFromBody(body RecommendRequest) (request.Request, error) {
	var description string
	if len(body.Description) > 0 {
		if err := json.Unmarshal(body.Description, &description); err != nil {
			return request.Request{}, domain.NewValidationError(msgMissingDesc)
		}
	}

	topN, ok := parseTopN(body.TopN)
	if !ok {
		// Description is checked first to keep the message order stable.
		if strings.TrimSpace(description) == "" {
			return request.Request{}, domain.NewValidationError(msgMissingDesc)
		}
		return request.Request{}, domain.NewValidationError("%s", topNMessage())
	}
	return request.New(description, topN) //nolint:wrapcheck // validation error
}

func batchItemFromBody(body RecommendRequest) recommenduc.BatchItem {
	var item recommenduc.BatchItem
	if len(body.Description) > 0 {
		_ = json.Unmarshal(body.Description, &item.Description)
	}
	topN, ok := parseTopN(body.TopN)
	if !ok || topN == 0 {
		topN = -1 // rejected by request validation
	}
	item.TopN = topN
	return item
}

// parseTopN returns the default for an absent value and rejects anything
// that is not a JSON integer literal.
func parseTopN(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return request.DefaultTopN, true
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func topNMessage() string {
	return "Field \"top_n\" must be between " +
		strconv.Itoa(request.MinTopN) + " and " + strconv.Itoa(request.MaxTopN)
}

func recommendDataFrom(res recommenduc.Result) RecommendData {
	items := make([]MatchItem, len(res.Matches))
	for i := range res.Matches {
		items[i] = matchToItem(&res.Matches[i])
	}
	d := RecommendData{
		Matches:    items,
		Method:     methodTFIDF,
		Query:      res.Query,
		Count:      len(items),
		RAGEnabled: res.RAGEnabled,
	}
	if res.RAGEnabled {
		explanation := res.Explanation
		d.Explanation = &explanation
	}
	return d
}

func matchToItem(m *match.Match) MatchItem {
	return MatchItem{
		ID:      m.ID(),
		Score:   m.Score(),
		Problem: m.Problem(),
		Data:    m.Data(),
		Clause:  m.Clause(),
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}

func setExplanationHeaders(w http.ResponseWriter, usage *domain.ExplanationUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Explanation-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeEnvelopeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{OK: false, Error: &message})
}

// safeMessage returns a client message without exposing internals.
func (s *Server) safeMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if errors.Is(err, domain.ErrDataUnavailable) {
		return domain.ErrDataUnavailable.Error()
	}
	return msgInternalError
}

// validationHandler maps *domain.ValidationError to 400 with its message.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeEnvelopeError(w, http.StatusBadRequest, ve.Message)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeEnvelopeError(w, status, sentinel.Error())
		return true
	}
}

func (s *Server) handleEnvelopeError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeEnvelopeError(w, http.StatusInternalServerError, msgInternalError)
}

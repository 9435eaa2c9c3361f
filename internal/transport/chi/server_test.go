package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/batch"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/request"
	domusage "github.com/kailas-cloud/roadsafe/internal/domain/usage"
	healthuc "github.com/kailas-cloud/roadsafe/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/roadsafe/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/roadsafe/internal/usecase/search"
)

// --- Mocks ---

type mockRecommender struct {
	lastReq    request.Request
	calls      int
	err        error
	tokens     int
	batchItems []recommenduc.BatchItem
	explain    bool
}

func (m *mockRecommender) Recommend(ctx context.Context, req request.Request) (recommenduc.Result, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return recommenduc.Result{}, m.err
	}
	res := recommenduc.Result{
		Query:   req.Description(),
		Matches: []match.Match{match.New(3, 0.42, "Faded Road Markings", "Markings worn", "IRC:35-2015 4.1")},
	}
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(m.tokens)
		res.Explanation = "Repaint the markings."
		res.RAGEnabled = true
	}
	return res, nil
}

func (m *mockRecommender) RecommendBatch(
	_ context.Context, items []recommenduc.BatchItem, withExplanation bool,
) ([]batch.Result[recommenduc.Result], error) {
	m.batchItems = items
	m.explain = withExplanation
	if m.err != nil {
		return nil, m.err
	}
	out := make([]batch.Result[recommenduc.Result], len(items))
	for i, it := range items {
		if it.TopN < 0 {
			out[i] = batch.NewError[recommenduc.Result](i, domain.NewValidationError("Field \"top_n\" must be between 1 and 20"))
			continue
		}
		out[i] = batch.NewOK(i, recommenduc.Result{Query: it.Description})
	}
	return out, nil
}

func (m *mockRecommender) ExplanationAvailable() bool { return m.tokens > 0 }

type mockCache struct {
	status searchuc.Status
	resets int
}

func (m *mockCache) CacheStatus() searchuc.Status { return m.status }
func (m *mockCache) Reset()                       { m.resets++ }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	lastPeriod domusage.Period
}

func (m *mockUsage) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	m.lastPeriod = period
	b := domusage.NewBudget(1000, 250, 750, 1_767_225_600_000)
	return domusage.NewReport(period, 1_764_547_200_000, 1_767_225_600_000, "openai", b)
}

// --- Helpers ---

type fixture struct {
	rec    *mockRecommender
	cache  *mockCache
	health *mockHealth
	usage  *mockUsage
	router http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		rec:    &mockRecommender{},
		cache:  &mockCache{},
		health: &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"search": healthuc.CheckOK}}},
		usage:  &mockUsage{},
	}
	srv := NewServer(f.rec, f.cache, f.health, f.usage, "openai", zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	f.router = r
	return f
}

func (f *fixture) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) Envelope {
	t.Helper()
	var raw struct {
		OK    bool            `json:"ok"`
		Error *string         `json:"error"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if data != nil && len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return Envelope{OK: raw.OK, Error: raw.Error}
}

// --- Tests ---

func TestPostRecommend_Success(t *testing.T) {
	f := newFixture()
	rr := f.do("POST", "/recommend", "application/json", `{"description":"  faded markings ","top_n":3}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var data RecommendData
	env := decodeEnvelope(t, rr, &data)
	if !env.OK || env.Error != nil {
		t.Errorf("envelope: ok=%v error=%v", env.OK, env.Error)
	}
	if f.rec.lastReq.TopN() != 3 {
		t.Errorf("top_n: got %d, want 3", f.rec.lastReq.TopN())
	}
	if data.Query != "faded markings" {
		t.Errorf("query: got %q", data.Query)
	}
	if data.Method != "tfidf" || data.Count != 1 || len(data.Matches) != 1 {
		t.Errorf("unexpected data: %+v", data)
	}
	if data.Matches[0].ID != 3 || data.Matches[0].Clause != "IRC:35-2015 4.1" {
		t.Errorf("unexpected match: %+v", data.Matches[0])
	}
	if data.RAGEnabled || data.Explanation != nil {
		t.Errorf("explanation should be absent: %+v", data)
	}
	if rr.Header().Get("X-Explanation-Tokens") != "" {
		t.Errorf("unexpected tokens header")
	}
}

func TestPostRecommend_DefaultTopN(t *testing.T) {
	f := newFixture()
	rr := f.do("POST", "/recommend", "application/json; charset=utf-8", `{"description":"potholes"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if f.rec.lastReq.TopN() != request.DefaultTopN {
		t.Errorf("top_n: got %d, want %d", f.rec.lastReq.TopN(), request.DefaultTopN)
	}
}

func TestPostRecommend_WithExplanation(t *testing.T) {
	f := newFixture()
	f.rec.tokens = 120
	rr := f.do("POST", "/recommend", "application/json", `{"description":"potholes"}`)

	var data RecommendData
	decodeEnvelope(t, rr, &data)
	if !data.RAGEnabled || data.Explanation == nil || *data.Explanation == "" {
		t.Errorf("expected explanation: %+v", data)
	}
	if got := rr.Header().Get("X-Explanation-Tokens"); got != "120" {
		t.Errorf("tokens header: got %q, want 120", got)
	}
}

func TestPostRecommend_BadRequests(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantMsg     string
	}{
		{"no content type", "", `{"description":"x"}`, msgContentType},
		{"text content type", "text/plain", `{"description":"x"}`, msgContentType},
		{"invalid json", "application/json", `{`, msgInvalidJSON},
		{"missing description", "application/json", `{"top_n":3}`, msgMissingDesc},
		{"blank description", "application/json", `{"description":"   "}`, msgMissingDesc},
		{"numeric description", "application/json", `{"description":12}`, msgMissingDesc},
		{"top_n zero", "application/json", `{"description":"x","top_n":0}`, topNMessage()},
		{"top_n too large", "application/json", `{"description":"x","top_n":21}`, topNMessage()},
		{"top_n float", "application/json", `{"description":"x","top_n":5.0}`, topNMessage()},
		{"top_n string", "application/json", `{"description":"x","top_n":"5"}`, topNMessage()},
		{"top_n null", "application/json", `{"description":"x","top_n":null}`, topNMessage()},
		{"top_n bool", "application/json", `{"description":"x","top_n":true}`, topNMessage()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do("POST", "/recommend", tt.contentType, tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400", rr.Code)
			}
			env := decodeEnvelope(t, rr, nil)
			if env.OK || env.Error == nil || *env.Error != tt.wantMsg {
				t.Errorf("envelope: ok=%v error=%v, want %q", env.OK, env.Error, tt.wantMsg)
			}
			if f.rec.calls != 0 {
				t.Errorf("recommender should not be called")
			}
		})
	}
}

func TestPostRecommend_DataUnavailable_503(t *testing.T) {
	f := newFixture()
	f.rec.err = fmt.Errorf("load corpus: %w", domain.ErrDataUnavailable)
	rr := f.do("POST", "/recommend", "application/json", `{"description":"x"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	env := decodeEnvelope(t, rr, nil)
	if env.Error == nil || *env.Error != "search unavailable" {
		t.Errorf("error: %v", env.Error)
	}
}

func TestPostRecommend_InternalError_500(t *testing.T) {
	f := newFixture()
	f.rec.err = errors.New("disk on fire")
	rr := f.do("POST", "/recommend", "application/json", `{"description":"x"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", rr.Code)
	}
	env := decodeEnvelope(t, rr, nil)
	if env.Error == nil || *env.Error != msgInternalError {
		t.Errorf("internal details leaked: %v", env.Error)
	}
}

func TestGetRecommend_QueryBinding(t *testing.T) {
	f := newFixture()
	rr := f.do("GET", "/recommend?description=broken+guardrail&top_n=7", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if f.rec.lastReq.Description() != "broken guardrail" || f.rec.lastReq.TopN() != 7 {
		t.Errorf("unexpected request: %q %d", f.rec.lastReq.Description(), f.rec.lastReq.TopN())
	}
}

func TestGetRecommend_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing description", "/recommend"},
		{"non-integer top_n", "/recommend?description=x&top_n=abc"},
		{"top_n out of range", "/recommend?description=x&top_n=50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do("GET", tt.target, "", "")
			if rr.Code != http.StatusBadRequest {
				t.Errorf("got %d, want 400", rr.Code)
			}
		})
	}
}

func TestPostRecommendBatch(t *testing.T) {
	f := newFixture()
	body := `{"explain":true,"items":[{"description":"a"},{"description":"b","top_n":0},{"description":"c","top_n":2}]}`
	rr := f.do("POST", "/recommend/batch", "application/json", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	var data BatchData
	decodeEnvelope(t, rr, &data)
	if data.Succeeded != 2 || data.Failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 2/1", data.Succeeded, data.Failed)
	}
	if !f.rec.explain {
		t.Errorf("explain flag not passed")
	}
	if f.rec.batchItems[0].TopN != request.DefaultTopN || f.rec.batchItems[2].TopN != 2 {
		t.Errorf("unexpected items: %+v", f.rec.batchItems)
	}
	if data.Items[1].OK || data.Items[1].Error == nil {
		t.Errorf("item 1 should fail: %+v", data.Items[1])
	}
}

func TestPostRecommendBatch_TooMany(t *testing.T) {
	f := newFixture()
	f.rec.err = domain.NewValidationError("batch exceeds 50 items")
	rr := f.do("POST", "/recommend/batch", "application/json", `{"items":[]}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture()
	rr := f.do("GET", "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthy: got %d, want 200", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Checks["search"] != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}

	f.health.report = healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"search": healthuc.CheckError}}
	rr = f.do("GET", "/health", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded: got %d, want 503", rr.Code)
	}
}

func TestIndex(t *testing.T) {
	f := newFixture()
	rr := f.do("GET", "/", "", "")

	var resp InfoResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != apiName {
		t.Errorf("name: got %q", resp.Name)
	}
	if _, ok := resp.Endpoints["POST /recommend"]; !ok {
		t.Errorf("missing recommend endpoint: %v", resp.Endpoints)
	}
}

func TestCacheEndpoints(t *testing.T) {
	f := newFixture()
	f.cache.status = searchuc.Status{Initialized: true, DocumentCount: 12, FeatureCount: 80, VocabularySize: 80}

	rr := f.do("GET", "/search/cache", "", "")
	var st CacheStatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Initialized || st.DocumentCount != 12 {
		t.Errorf("unexpected status: %+v", st)
	}

	rr = f.do("POST", "/search/cache/reset", "", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("reset: got %d, want 204", rr.Code)
	}
	if f.cache.resets != 1 {
		t.Errorf("resets: got %d, want 1", f.cache.resets)
	}
}

func TestGetUsage(t *testing.T) {
	f := newFixture()
	rr := f.do("GET", "/usage?period=day", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	var resp UsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.usage.lastPeriod != domusage.PeriodDay || resp.Period != "day" {
		t.Errorf("period: got %q", resp.Period)
	}
	if resp.Budget.TokensRemaining != 750 || resp.Budget.ResetsAt == nil {
		t.Errorf("unexpected budget: %+v", resp.Budget)
	}

	rr = f.do("GET", "/usage", "", "")
	if rr.Code != http.StatusOK || f.usage.lastPeriod != domusage.PeriodMonth {
		t.Errorf("default period: code=%d period=%q", rr.Code, f.usage.lastPeriod)
	}

	rr = f.do("GET", "/usage?period=total", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown period: got %d, want 400", rr.Code)
	}
}

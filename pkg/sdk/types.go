package roadsafe

import "time"

// Match is one ranked IRC clause.
type Match struct {
	ID      int     `json:"id"`
	Score   float64 `json:"score"`
	Problem string  `json:"problem"`
	Data    string  `json:"data"`
	Clause  string  `json:"clause"`
}

// Recommendation is the result of one query.
type Recommendation struct {
	Matches     []Match `json:"matches"`
	Method      string  `json:"method"`
	Query       string  `json:"query"`
	Count       int     `json:"count"`
	RAGEnabled  bool    `json:"rag_enabled"`
	Explanation string  `json:"explanation,omitempty"`
}

// BatchQuery is one item of a batch request. Zero TopN means the server default.
type BatchQuery struct {
	Description string `json:"description"`
	TopN        int    `json:"top_n,omitempty"`
}

// BatchItem is the outcome of one batch query.
type BatchItem struct {
	Index          int             `json:"index"`
	OK             bool            `json:"ok"`
	Error          string          `json:"error,omitempty"`
	Recommendation *Recommendation `json:"data,omitempty"`
}

// BatchResult is the outcome of a batch request.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status               string            `json:"status"` // "healthy" or "degraded"
	ExplanationAvailable bool              `json:"explanation_available"`
	Provider             string            `json:"provider,omitempty"`
	Checks               map[string]string `json:"checks"` // component -> "ok"/"error"
}

// Healthy reports whether every component check passed.
func (h HealthStatus) Healthy() bool { return h.Status == "healthy" }

// CacheStatus describes the server search index.
type CacheStatus struct {
	Initialized    bool `json:"initialized"`
	DocumentCount  int  `json:"document_count"`
	FeatureCount   int  `json:"feature_count"`
	VocabularySize int  `json:"vocabulary_size"`
}

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// BudgetStatus tracks explanation token quota state.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensUsed      int64      `json:"tokens_used"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageReport contains explanation token usage for a period.
type UsageReport struct {
	Period      UsagePeriod  `json:"period"`
	Provider    string       `json:"provider,omitempty"`
	PeriodStart time.Time    `json:"period_start_at"`
	PeriodEnd   time.Time    `json:"period_end_at"`
	Budget      BudgetStatus `json:"budget"`
}

// envelope wraps /recommend responses.
type envelope[T any] struct {
	OK    bool    `json:"ok"`
	Error *string `json:"error"`
	Data  T       `json:"data"`
}

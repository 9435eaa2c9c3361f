package chi

import (
	"encoding/json"
	"time"
)

// Envelope wraps every /recommend response.
type Envelope struct {
	OK    bool    `json:"ok"`
	Error *string `json:"error"`
	Data  any     `json:"data"`
}

// RecommendRequest is the POST /recommend body. Fields are kept raw so
// type errors map to the same client messages as missing values.
type RecommendRequest struct {
	Description json.RawMessage `json:"description"`
	TopN        json.RawMessage `json:"top_n"`
}

// RecommendParams are the GET /recommend query parameters.
type RecommendParams struct {
	Description *string
	TopN        *int
}

// MatchItem is one ranked clause.
type MatchItem struct {
	ID      int     `json:"id"`
	Score   float64 `json:"score"`
	Problem string  `json:"problem"`
	Data    string  `json:"data"`
	Clause  string  `json:"clause"`
}

// RecommendData is the payload of a successful recommendation.
type RecommendData struct {
	Matches     []MatchItem `json:"matches"`
	Method      string      `json:"method"`
	Query       string      `json:"query"`
	Count       int         `json:"count"`
	RAGEnabled  bool        `json:"rag_enabled"`
	Explanation *string     `json:"explanation,omitempty"`
}

// BatchRequest is the POST /recommend/batch body.
type BatchRequest struct {
	Items   []RecommendRequest `json:"items"`
	Explain bool               `json:"explain"`
}

// BatchItemResult is the outcome of one batch item.
type BatchItemResult struct {
	Index int            `json:"index"`
	OK    bool           `json:"ok"`
	Error *string        `json:"error"`
	Data  *RecommendData `json:"data"`
}

// BatchData is the payload of a batch response.
type BatchData struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status               string            `json:"status"`
	ExplanationAvailable bool              `json:"explanation_available"`
	Provider             string            `json:"provider,omitempty"`
	Checks               map[string]string `json:"checks"`
}

// InfoResponse is the GET / body.
type InfoResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Features  map[string]any    `json:"features"`
}

// CacheStatusResponse is the GET /search/cache body.
type CacheStatusResponse struct {
	Initialized    bool `json:"initialized"`
	DocumentCount  int  `json:"document_count"`
	FeatureCount   int  `json:"feature_count"`
	VocabularySize int  `json:"vocabulary_size"`
}

// BudgetStatus is the token budget part of a usage report.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensUsed      int64      `json:"tokens_used"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the GET /usage body.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt time.Time    `json:"period_start_at"`
	PeriodEndAt   time.Time    `json:"period_end_at"`
	Budget        BudgetStatus `json:"budget"`
}

// ErrorResponse is the body of non-envelope errors.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

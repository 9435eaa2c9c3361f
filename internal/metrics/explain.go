package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Explanation generator Prometheus metrics.
var (
	ExplainRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "explain_requests_total",
			Help:      "Total number of explanation requests",
		},
		[]string{"provider", "model", "status"},
	)

	ExplainRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "explain_request_duration_seconds",
			Help:      "Explanation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	ExplainTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "explain_tokens_total",
			Help:      "Total explanation tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	ExplainErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "explain_errors_total",
			Help:      "Total explanation errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	ExplainBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "explain_budget_tokens_remaining",
			Help:      "Remaining explanation token budget",
		},
		[]string{"provider", "period"},
	)

	ExplainCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "explain_cache_total",
			Help:      "Explanation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var explainMetricsRegistered bool

// RegisterExplainMetrics registers explanation metrics. Must be called once from main.
func RegisterExplainMetrics() {
	if explainMetricsRegistered {
		return
	}
	prometheus.MustRegister(ExplainRequestsTotal)
	prometheus.MustRegister(ExplainRequestDuration)
	prometheus.MustRegister(ExplainTokensTotal)
	prometheus.MustRegister(ExplainErrorsTotal)
	prometheus.MustRegister(ExplainBudgetTokensRemaining)
	prometheus.MustRegister(ExplainCacheTotal)
	explainMetricsRegistered = true
}

// ObserveExplainSuccess records a successful provider call.
func ObserveExplainSuccess(provider, model string, d time.Duration, promptTokens, completionTokens int) {
	ExplainRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	ExplainRequestDuration.WithLabelValues(provider, model).Observe(d.Seconds())
	if promptTokens > 0 {
		ExplainTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		ExplainTokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// ObserveExplainError records a failed provider call.
func ObserveExplainError(provider, model, errorType string) {
	ExplainRequestsTotal.WithLabelValues(provider, model, "error").Inc()
	ExplainErrorsTotal.WithLabelValues(provider, model, errorType).Inc()
}

package domain

import (
	"context"
	"sync"
)

type explanationUsageKey struct{}

// ExplanationUsage collects token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the service writes after generation; the handler reads it for response headers.
// Batch items may add tokens concurrently; read fields only after they finish.
type ExplanationUsage struct {
	mu          sync.Mutex
	TotalTokens int
	Used        bool // true if generation was called, even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with an explanation usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *ExplanationUsage) {
	u := &ExplanationUsage{}
	return context.WithValue(ctx, explanationUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *ExplanationUsage {
	u, _ := ctx.Value(explanationUsageKey{}).(*ExplanationUsage)
	return u
}

// AddTokens records consumed tokens. Safe on a nil receiver.
func (u *ExplanationUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.TotalTokens += n
	u.Used = true
	u.mu.Unlock()
}

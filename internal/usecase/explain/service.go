package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
)

// Service turns ranked matches into a short expert explanation.
type Service struct {
	gen          domain.Generator
	contextSize  int
	dataMaxRunes int
}

// New creates an explanation service. gen may be nil, in which case
// Explain reports domain.ErrNotConfigured.
func New(gen domain.Generator, contextSize, dataMaxRunes int) *Service {
	return &Service{gen: gen, contextSize: contextSize, dataMaxRunes: dataMaxRunes}
}

// Available reports whether a generator is configured.
func (s *Service) Available() bool {
	return s != nil && s.gen != nil
}

// Explain returns an explanation of why the top match fits the query.
// No matches yields an empty explanation and no provider call.
func (s *Service) Explain(ctx context.Context, query string, matches []match.Match) (string, error) {
	if !s.Available() {
		return "", domain.ErrNotConfigured
	}
	if len(matches) == 0 {
		return "", nil
	}

	p := BuildPrompt(query, matches, s.contextSize, s.dataMaxRunes)
	res, err := s.gen.Generate(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrExplanationBudgetExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrExplanationUnavailable, err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrExplanationUnavailable)
	}
	return text, nil
}

// HealthCheck checks the configured generator when it supports health checks.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Available() {
		return domain.ErrNotConfigured
	}
	if hc, ok := s.gen.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}

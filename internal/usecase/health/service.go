package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "healthy"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status               Status
	Checks               map[string]CheckResult
	ExplanationAvailable bool
	Provider             string
}

// Service coordinates health checks.
type Service struct {
	search   SearchInitializer
	cache    Pinger
	provider string
}

// New creates a Service. cache can be nil; provider is empty when
// explanations are disabled.
func New(search SearchInitializer, cache Pinger, provider string) *Service {
	return &Service{search: search, cache: cache, provider: provider}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.search.Initialize(ctx); err != nil {
		checks["search"] = CheckError
	} else {
		checks["search"] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:               status,
		Checks:               checks,
		ExplanationAvailable: s.provider != "",
		Provider:             s.provider,
	}
}

package roadsafe

import (
	"fmt"
	"net/http"

	"github.com/kailas-cloud/roadsafe/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest  = domain.ErrInvalidRequest
	ErrDataUnavailable = domain.ErrDataUnavailable
)

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("roadsafe: %d %s (request %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("roadsafe: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code to a sentinel error.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusServiceUnavailable:
		return ErrDataUnavailable
	default:
		return nil
	}
}

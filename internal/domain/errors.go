package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable signals that the corpus could not be loaded or indexed.
	ErrDataUnavailable = errors.New("search unavailable")
	// ErrInvalidRequest signals a malformed or out-of-range request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrExplanationUnavailable signals an explanation provider failure.
	ErrExplanationUnavailable = errors.New("explanation unavailable")
	// ErrExplanationBudgetExceeded signals an exhausted explanation token budget.
	ErrExplanationBudgetExceeded = errors.New("explanation token budget exceeded")
	// ErrNotConfigured signals an optional component that was not configured.
	ErrNotConfigured = errors.New("not configured")
)

// ValidationError wraps ErrInvalidRequest with a client-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRequest.Error(), e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// NewValidationError creates a validation error with the given message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

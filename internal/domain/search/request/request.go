package request

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/roadsafe/internal/domain"
)

// Recommendation parameter limits.
const (
	// MaxDescriptionLength is the maximum allowed description length in characters.
	MaxDescriptionLength = 4096
	DefaultTopN          = 5
	MinTopN              = 1
	MaxTopN              = 20
)

// Request is a validated recommendation query.
type Request struct {
	description string
	topN        int
}

// New validates recommendation parameters. The description is trimmed;
// topN must already be resolved (callers substitute DefaultTopN when absent).
func New(description string, topN int) (Request, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Request{}, domain.NewValidationError("Missing required field: description")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return Request{}, domain.NewValidationError(
			"Field \"description\" is too long (max %d characters)", MaxDescriptionLength)
	}
	if topN < MinTopN || topN > MaxTopN {
		return Request{}, domain.NewValidationError(
			"Field \"top_n\" must be between %d and %d", MinTopN, MaxTopN)
	}
	return Request{description: description, topN: topN}, nil
}

// Description returns the trimmed query text.
func (r *Request) Description() string { return r.description }

// TopN returns the maximum number of matches to return.
func (r *Request) TopN() int { return r.topN }

package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/roadsafe/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	r, err := New("  faded zebra crossing  ", DefaultTopN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Description() != "faded zebra crossing" {
		t.Errorf("Description() = %q, want trimmed", r.Description())
	}
	if r.TopN() != DefaultTopN {
		t.Errorf("TopN() = %d", r.TopN())
	}
}

func TestNew_MissingDescription(t *testing.T) {
	for _, d := range []string{"", "   ", "\t\n"} {
		_, err := New(d, 5)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("New(%q): expected ErrInvalidRequest, got %v", d, err)
		}
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Message != "Missing required field: description" {
			t.Errorf("unexpected message: %v", err)
		}
	}
}

func TestNew_TopNBounds(t *testing.T) {
	tests := []struct {
		topN    int
		wantErr bool
	}{
		{0, true},
		{-1, true},
		{1, false},
		{20, false},
		{21, true},
	}
	for _, tc := range tests {
		_, err := New("pothole", tc.topN)
		if (err != nil) != tc.wantErr {
			t.Errorf("New(top_n=%d) err = %v, wantErr %v", tc.topN, err, tc.wantErr)
		}
		if err != nil {
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Message != `Field "top_n" must be between 1 and 20` {
				t.Errorf("unexpected message for top_n=%d: %v", tc.topN, err)
			}
		}
	}
}

func TestNew_DescriptionTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxDescriptionLength+1), 5)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestUsageFromContext(t *testing.T) {
	if u := UsageFromContext(context.Background()); u != nil {
		t.Fatalf("expected nil usage, got %+v", u)
	}

	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(42)
	UsageFromContext(ctx).AddTokens(0)

	if u.TotalTokens != 42 || !u.Used {
		t.Errorf("unexpected usage %+v", u)
	}
}

func TestUsage_AddTokensNil(t *testing.T) {
	var u *ExplanationUsage
	u.AddTokens(5) // must not panic
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("Field %q must be between %d and %d", "top_n", 1, 20)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatal("expected ErrInvalidRequest")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected *ValidationError")
	}
	if ve.Message != `Field "top_n" must be between 1 and 20` {
		t.Errorf("unexpected message %q", ve.Message)
	}
}

func TestUsage_AddTokensConcurrent(t *testing.T) {
	_, u := NewContextWithUsage(context.Background())
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.AddTokens(10)
		}()
	}
	wg.Wait()
	if u.TotalTokens != 80 {
		t.Errorf("expected 80 tokens, got %d", u.TotalTokens)
	}
}

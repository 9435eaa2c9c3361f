package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK(3, "value")
	if r.Index() != 3 {
		t.Errorf("Index() = %d", r.Index())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Value() != "value" {
		t.Errorf("Value() = %q", r.Value())
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError[int](1, err)
	if r.Index() != 1 {
		t.Errorf("Index() = %d", r.Index())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
	if r.Value() != 0 {
		t.Errorf("Value() = %d, want zero", r.Value())
	}
}

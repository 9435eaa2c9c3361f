package tfidf

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	a := newVector(map[int]float64{0: 1, 2: 1})
	b := newVector(map[int]float64{2: 1, 5: 1})
	if got := Cosine(a, b); math.Abs(got-0.5) > eps {
		t.Errorf("Cosine = %v, want 0.5", got)
	}
	got := Cosine(a, a)
	if math.Abs(got-1) > eps || got > 1 {
		t.Errorf("Cosine(a, a) = %v, want 1", got)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	a := newVector(map[int]float64{1: 3})
	if got := Cosine(a, Vector{}); got != 0 {
		t.Errorf("Cosine with zero vector = %v, want 0", got)
	}
}

func TestNewVector_SortedAndSparse(t *testing.T) {
	v := newVector(map[int]float64{7: 1, 3: 2, 5: 0})
	if v.Len() != 2 {
		t.Fatalf("Len = %d, want 2", v.Len())
	}
	if v.Indices[0] != 3 || v.Indices[1] != 7 {
		t.Errorf("indices = %v, want [3 7]", v.Indices)
	}
}

func TestDot_Disjoint(t *testing.T) {
	a := newVector(map[int]float64{1: 1})
	b := newVector(map[int]float64{2: 1})
	if Dot(a, b) != 0 {
		t.Error("disjoint vectors should have zero dot product")
	}
}

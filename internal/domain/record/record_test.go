package record

import "testing"

func TestCombinedText_FieldOrder(t *testing.T) {
	r := New(0, "faded road markings", "Road Marking", "Markings", "Markings require repainting", "IRC-35")
	want := "faded road markings Road Marking Markings Markings require repainting"
	if got := r.CombinedText(); got != want {
		t.Errorf("CombinedText() = %q, want %q", got, want)
	}
}

func TestCombinedText_EmptyFields(t *testing.T) {
	r := New(0, "damaged guardrail", "", "", "Guardrail bent, replace", "IRC-99")
	want := "damaged guardrail   Guardrail bent, replace"
	if got := r.CombinedText(); got != want {
		t.Errorf("CombinedText() = %q, want %q", got, want)
	}
}

func TestAccessors(t *testing.T) {
	r := New(7, "p", "t", "c", "d", "cl")
	if r.ID() != 7 || r.Problem() != "p" || r.Type() != "t" ||
		r.Category() != "c" || r.Data() != "d" || r.Clause() != "cl" {
		t.Errorf("unexpected accessors: %+v", r)
	}
}

func TestRenumber(t *testing.T) {
	in := []Record{New(5, "a", "", "", "", ""), New(9, "b", "", "", "", "")}
	out := Renumber(in)
	for i, r := range out {
		if r.ID() != i {
			t.Errorf("record %d has id %d", i, r.ID())
		}
	}
	if in[0].ID() != 5 {
		t.Error("Renumber must not mutate its input")
	}
}

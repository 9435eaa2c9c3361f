package search

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/record"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
)

// --- Mocks ---

type mockLoader struct {
	records []record.Record
	err     error
	calls   atomic.Int32
}

func (m *mockLoader) Load(_ context.Context) ([]record.Record, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func threeRecords() []record.Record {
	return []record.Record{
		record.New(0, "faded road markings", "", "", "Markings require repainting", "IRC-35"),
		record.New(1, "missing speed limit sign", "", "", "Sign must be installed", "IRC-67"),
		record.New(2, "damaged guardrail", "", "", "Guardrail bent, replace", "IRC-99"),
	}
}

func sampleRecords() []record.Record {
	return []record.Record{
		record.New(0, "Faded zebra crossing", "Marking", "Pedestrian", "Zebra crossing markings near the school have faded", "IRC:35-2015 Clause 4.2"),
		record.New(1, "Missing stop sign", "Sign", "Junction", "Stop sign missing at the minor road approach", "IRC:67-2022 Clause 14.2"),
		record.New(2, "Damaged crash barrier", "Barrier", "Roadside", "Metal beam crash barrier dented on the curve", "IRC:119-2015 Clause 5"),
		record.New(3, "Faded centre line", "Marking", "Carriageway", "Centre line marking has faded on the highway", "IRC:35-2015 Clause 3.1"),
		record.New(4, "Missing speed hump signs", "Sign", "Traffic calming", "No warning sign before speed hump", "IRC:99-2018 Clause 6"),
		record.New(5, "Street light not working", "Lighting", "Junction", "Street lighting at the junction is not functional", "IRC:SP:73-2018"),
	}
}

// --- Tests ---

func TestSearch_ThreeRecordScenario(t *testing.T) {
	svc := New(&mockLoader{records: threeRecords()})

	got, err := svc.Search(context.Background(), "missing sign", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only record 1, got %d matches", len(got))
	}
	if got[0].ID() != 1 || got[0].Clause() != "IRC-67" {
		t.Errorf("expected record 1 (IRC-67), got %d (%s)", got[0].ID(), got[0].Clause())
	}
	if got[0].Score() <= 0 {
		t.Errorf("expected positive score, got %v", got[0].Score())
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	for _, q := range []string{"", "   ", "\t\n"} {
		for _, n := range []int{1, 5, 20} {
			got, err := svc.Search(context.Background(), q, n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("Search(%q, %d) = %v, want empty non-nil slice", q, n, got)
			}
		}
	}
}

func TestSearch_LengthAndPositiveScores(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	queries := []string{"faded marking", "missing sign junction", "barrier", "street light", "zebra"}
	for _, q := range queries {
		for n := 1; n <= 8; n++ {
			got, err := svc.Search(context.Background(), q, n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) > n {
				t.Errorf("Search(%q, %d) returned %d matches", q, n, len(got))
			}
			for _, m := range got {
				if m.Score() <= 0 || m.Score() > 1 {
					t.Errorf("Search(%q, %d): score %v out of (0, 1]", q, n, m.Score())
				}
			}
		}
	}
}

func TestSearch_Ordering(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	got, err := svc.Search(context.Background(), "faded missing sign marking junction", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected several matches, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.Score() > prev.Score() {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, cur.Score(), prev.Score())
		}
		if cur.Score() == prev.Score() && cur.ID() <= prev.ID() {
			t.Errorf("tie at %d not ordered by id: %d after %d", i, cur.ID(), prev.ID())
		}
	}
}

func TestSearch_TiesOrderedByID(t *testing.T) {
	records := []record.Record{
		record.New(0, "pothole", "", "", "", "A"),
		record.New(1, "pothole", "", "", "", "B"),
		record.New(2, "kerb", "", "", "", "C"),
	}
	svc := New(&mockLoader{records: records})
	got, err := svc.Search(context.Background(), "pothole", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID() != 0 || got[1].ID() != 1 {
		t.Errorf("expected ids [0 1], got [%d %d]", got[0].ID(), got[1].ID())
	}
}

func TestSearch_Deterministic(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	first, err := svc.Search(context.Background(), "faded marking near school", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 10 {
		again, err := svc.Search(context.Background(), "faded marking near school", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("results differ between calls: %v vs %v", first, again)
		}
	}
}

func TestSearch_ResetReproducesResults(t *testing.T) {
	loader := &mockLoader{records: sampleRecords()}
	svc := New(loader)
	before, err := svc.Search(context.Background(), "missing stop sign", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.Reset()
	if svc.CacheStatus().Initialized {
		t.Fatal("expected uninitialized after reset")
	}

	after, err := svc.Search(context.Background(), "missing stop sign", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("results differ after reset: %v vs %v", before, after)
	}
	if loader.calls.Load() != 2 {
		t.Errorf("expected 2 loads, got %d", loader.calls.Load())
	}
}

func TestSearch_UnseenTerms(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	got, err := svc.Search(context.Background(), "xylophone quokka", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestSearch_SelfSimilarity(t *testing.T) {
	records := sampleRecords()
	svc := New(&mockLoader{records: records})
	for i := range records {
		got, err := svc.Search(context.Background(), records[i].CombinedText(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("record %d: expected a match", i)
		}
		if got[0].ID() != i {
			t.Errorf("record %d: best match is %d", i, got[0].ID())
		}
		if math.Abs(got[0].Score()-1) > 1e-9 {
			t.Errorf("record %d: self similarity %v, want 1", i, got[0].Score())
		}
	}
}

func TestSearch_NonPositiveTopN(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	got, err := svc.Search(context.Background(), "faded", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestInitialize_LoaderErrorIsDataUnavailable(t *testing.T) {
	loader := &mockLoader{err: errors.New("file not found")}
	svc := New(loader)

	err := svc.Initialize(context.Background())
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if svc.CacheStatus().Initialized {
		t.Error("engine must stay uninitialized after a failed load")
	}

	_, err = svc.Search(context.Background(), "faded", 5)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable from search, got %v", err)
	}

	// Retries on the next call once the source recovers.
	loader.err = nil
	loader.records = sampleRecords()
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loader.calls.Load(); got != 3 {
		t.Errorf("expected 3 load attempts, got %d", got)
	}
}

func TestInitialize_CorpusWithoutFeatures(t *testing.T) {
	dup := record.New(1, "faded road markings", "", "", "Markings require repainting", "IRC-35")
	tests := []struct {
		name    string
		records []record.Record
	}{
		{"single record", threeRecords()[:1]},
		{"identical records", []record.Record{threeRecords()[0], dup}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockLoader{records: tt.records})
			if err := svc.Initialize(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			st := svc.CacheStatus()
			if !st.Initialized || st.DocumentCount != len(tt.records) || st.FeatureCount != 0 {
				t.Errorf("unexpected status %+v", st)
			}

			for _, q := range []string{"", "   ", "faded road markings", "anything at all"} {
				got, err := svc.Search(context.Background(), q, 3)
				if err != nil {
					t.Fatalf("Search(%q): unexpected error: %v", q, err)
				}
				if got == nil || len(got) != 0 {
					t.Errorf("Search(%q): expected empty non-nil result, got %v", q, got)
				}
			}
		})
	}
}

func TestInitialize_EmptyCorpus(t *testing.T) {
	svc := New(&mockLoader{records: nil})
	err := svc.Initialize(context.Background())
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestInitialize_ConcurrentLoadsOnce(t *testing.T) {
	loader := &mockLoader{records: sampleRecords()}
	svc := New(loader)

	var wg sync.WaitGroup
	results := make([][]match.Match, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := svc.Search(context.Background(), "faded marking", 3)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = got
		}(i)
	}
	wg.Wait()

	if got := loader.calls.Load(); got != 1 {
		t.Errorf("expected exactly one load, got %d", got)
	}
	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Errorf("goroutine %d saw different results", i)
		}
	}
}

func TestSearch_ResetDuringConcurrentSearch(t *testing.T) {
	loader := &mockLoader{records: sampleRecords()}
	svc := New(loader)
	ctx := context.Background()

	want, err := svc.Search(ctx, "faded marking", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(want) == 0 {
		t.Fatal("expected matches for the baseline query")
	}

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				switch {
				case w == 0 && i%10 == 0:
					svc.Reset()
				case w == 1 && i%10 == 0:
					_ = svc.CacheStatus()
				case w == 2 && i%25 == 0:
					if err := svc.Initialize(ctx); err != nil {
						t.Errorf("Initialize: %v", err)
						return
					}
				}
				got, err := svc.Search(ctx, "faded marking", 3)
				if err != nil {
					t.Errorf("Search: %v", err)
					return
				}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("Search during reset returned %v, want %v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()

	if loader.calls.Load() < 2 {
		t.Error("expected resets to force at least one rebuild")
	}
}

func TestCacheStatus(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	if st := svc.CacheStatus(); st != (Status{}) {
		t.Errorf("expected zero status before init, got %+v", st)
	}
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := svc.CacheStatus()
	if !st.Initialized || st.DocumentCount != 6 {
		t.Errorf("unexpected status %+v", st)
	}
	if st.FeatureCount == 0 || st.FeatureCount != st.VocabularySize {
		t.Errorf("unexpected dimensions %+v", st)
	}
	if st.VocabularySize > 1000 {
		t.Errorf("vocabulary exceeds cap: %d", st.VocabularySize)
	}
}

func TestRecord(t *testing.T) {
	svc := New(&mockLoader{records: sampleRecords()})
	r, err := svc.Record(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Clause() != "IRC:67-2022 Clause 14.2" {
		t.Errorf("unexpected clause %q", r.Clause())
	}
	if _, err := svc.Record(context.Background(), 99); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

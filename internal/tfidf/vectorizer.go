package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoDocuments is returned by Fit for an empty corpus.
var ErrNoDocuments = errors.New("no documents")

// Options controls vocabulary construction and weighting.
type Options struct {
	// MaxFeatures caps the vocabulary by corpus-wide term frequency; 0 means no cap.
	MaxFeatures int
	// MinDF is the minimum absolute document frequency.
	MinDF int
	// MaxDF is the maximum document frequency as a proportion of documents.
	MaxDF    float64
	NgramMin int
	NgramMax int
	Stop     StopSet
}

// DefaultOptions returns unigrams and bigrams, English stop words, a
// 1000-term cap, min_df = 1 and max_df = 0.95.
func DefaultOptions() Options {
	return Options{
		MaxFeatures: 1000,
		MinDF:       1,
		MaxDF:       0.95,
		NgramMin:    1,
		NgramMax:    2,
		Stop:        EnglishStopWords,
	}
}

// Validate checks option consistency.
func (o Options) Validate() error {
	if o.NgramMin < 1 || o.NgramMax < o.NgramMin {
		return fmt.Errorf("invalid ngram range [%d, %d]", o.NgramMin, o.NgramMax)
	}
	if o.MinDF < 1 {
		return fmt.Errorf("min_df must be >= 1, got %d", o.MinDF)
	}
	if o.MaxDF <= 0 || o.MaxDF > 1 {
		return fmt.Errorf("max_df must be in (0, 1], got %g", o.MaxDF)
	}
	if o.MaxFeatures < 0 {
		return fmt.Errorf("max_features must be >= 0, got %d", o.MaxFeatures)
	}
	return nil
}

// Model is a fitted vocabulary with idf weights. It is immutable after Fit.
type Model struct {
	analyzer *Analyzer
	vocab    map[string]int
	terms    []string
	idf      []float64
}

// Fit learns the vocabulary and idf weights from docs and returns the model
// together with the L2-normalised document vectors, in document order.
// When df pruning removes every term (a single document under max_df < 1,
// identical documents, stop words only) the model has no features: every
// vector is zero and nothing is similar to anything.
func Fit(docs []string, opts Options) (*Model, []Vector, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	n := len(docs)
	if n == 0 {
		return nil, nil, ErrNoDocuments
	}

	analyzer := NewAnalyzer(opts.Stop, opts.NgramMin, opts.NgramMax)

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	tf := make(map[string]int)
	for i, doc := range docs {
		c := make(map[string]int)
		for _, t := range analyzer.Terms(doc) {
			c[t]++
		}
		for t, k := range c {
			df[t]++
			tf[t] += k
		}
		counts[i] = c
	}

	maxDocCount := opts.MaxDF * float64(n)
	terms := make([]string, 0, len(df))
	for t, d := range df {
		if d >= opts.MinDF && float64(d) <= maxDocCount {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)

	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.SliceStable(terms, func(i, j int) bool { return tf[terms[i]] > tf[terms[j]] })
		terms = terms[:opts.MaxFeatures]
		sort.Strings(terms)
	}

	m := &Model{
		analyzer: analyzer,
		vocab:    make(map[string]int, len(terms)),
		terms:    terms,
		idf:      make([]float64, len(terms)),
	}
	for i, t := range terms {
		m.vocab[t] = i
		m.idf[i] = math.Log(float64(1+n)/float64(1+df[t])) + 1
	}

	vecs := make([]Vector, n)
	for i, c := range counts {
		vecs[i] = m.weigh(c)
	}
	return m, vecs, nil
}

// Transform projects text onto the fitted vocabulary. Unseen terms are ignored.
func (m *Model) Transform(text string) Vector {
	c := make(map[string]int)
	for _, t := range m.analyzer.Terms(text) {
		if _, ok := m.vocab[t]; ok {
			c[t]++
		}
	}
	return m.weigh(c)
}

func (m *Model) weigh(counts map[string]int) Vector {
	w := make(map[int]float64, len(counts))
	for t, k := range counts {
		col, ok := m.vocab[t]
		if !ok {
			continue
		}
		w[col] = float64(k) * m.idf[col]
	}
	v := newVector(w)
	v.normalize()
	return v
}

// VocabularySize returns the number of terms kept after pruning.
func (m *Model) VocabularySize() int { return len(m.terms) }

// Terms returns the vocabulary in column order.
func (m *Model) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Column returns the column of term and whether it is in the vocabulary.
func (m *Model) Column(term string) (int, bool) {
	c, ok := m.vocab[term]
	return c, ok
}

// IDF returns the idf weight of a vocabulary column.
func (m *Model) IDF(col int) float64 { return m.idf[col] }

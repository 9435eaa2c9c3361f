// Package tfidf implements a term-frequency / inverse-document-frequency
// vector space model with cosine similarity over sparse vectors.
package tfidf

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and returns maximal runs of two or more word
// characters (letters, digits, underscore).
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	start := -1
	runes := 0
	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			tokens = append(tokens, text[start:end])
		}
		start, runes = -1, 0
	}
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Analyzer turns a document into its list of terms.
type Analyzer struct {
	stop     StopSet
	ngramMin int
	ngramMax int
}

// NewAnalyzer creates an analyzer producing n-grams in [ngramMin, ngramMax]
// after dropping stop words.
func NewAnalyzer(stop StopSet, ngramMin, ngramMax int) *Analyzer {
	return &Analyzer{stop: stop, ngramMin: ngramMin, ngramMax: ngramMax}
}

// Terms returns the n-gram terms of text in document order.
func (a *Analyzer) Terms(text string) []string {
	tokens := Tokenize(text)
	if len(a.stop) > 0 {
		kept := tokens[:0]
		for _, t := range tokens {
			if !a.stop.Contains(t) {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	if a.ngramMax == 1 && a.ngramMin == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*(a.ngramMax-a.ngramMin+1))
	if a.ngramMin == 1 {
		terms = append(terms, tokens...)
	}
	lo := max(a.ngramMin, 2)
	for n := lo; n <= a.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

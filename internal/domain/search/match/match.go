// Package match defines a ranked search hit.
package match

// Match is a single ranked corpus record with its cosine similarity.
type Match struct {
	id      int
	score   float64
	problem string
	data    string
	clause  string
}

// New creates a match.
func New(id int, score float64, problem, data, clause string) Match {
	return Match{id: id, score: score, problem: problem, data: data, clause: clause}
}

// ID returns the corpus record id.
func (m *Match) ID() int { return m.id }

// Score returns the cosine similarity in (0, 1].
func (m *Match) Score() float64 { return m.score }

// Problem returns the record problem statement.
func (m *Match) Problem() string { return m.problem }

// Data returns the record description.
func (m *Match) Data() string { return m.data }

// Clause returns the IRC clause reference.
func (m *Match) Clause() string { return m.clause }

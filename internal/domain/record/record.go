// Package record defines a single row of the IRC intervention corpus.
package record

import "strings"

// Record is one immutable corpus row. The id is the row position in the corpus.
type Record struct {
	id       int
	problem  string
	kind     string
	category string
	data     string
	clause   string
}

// New creates a record. Absent fields are passed as empty strings.
func New(id int, problem, kind, category, data, clause string) Record {
	return Record{
		id:       id,
		problem:  problem,
		kind:     kind,
		category: category,
		data:     data,
		clause:   clause,
	}
}

// ID returns the 0-based row position.
func (r *Record) ID() int { return r.id }

// Problem returns the short problem statement.
func (r *Record) Problem() string { return r.problem }

// Type returns the intervention type.
func (r *Record) Type() string { return r.kind }

// Category returns the road element category.
func (r *Record) Category() string { return r.category }

// Data returns the free-text description.
func (r *Record) Data() string { return r.data }

// Clause returns the IRC clause reference.
func (r *Record) Clause() string { return r.clause }

// CombinedText joins problem, type, category and data with single spaces.
// Empty fields still contribute their separator so the layout is stable.
func (r *Record) CombinedText() string {
	return strings.Join([]string{r.problem, r.kind, r.category, r.data}, " ")
}

// Renumber returns a copy of the records with ids equal to their positions.
func Renumber(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.id = i
		out[i] = r
	}
	return out
}

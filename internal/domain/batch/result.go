// Package batch describes per-item outcomes of batch operations.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result[T any] struct {
	index  int
	status ItemStatus
	value  T
	err    error
}

// NewOK creates a successful batch result.
func NewOK[T any](index int, value T) Result[T] {
	return Result[T]{index: index, status: StatusOK, value: value}
}

// NewError creates a failed batch result.
func NewError[T any](index int, err error) Result[T] {
	return Result[T]{index: index, status: StatusError, err: err}
}

// Index returns the item position in the request.
func (r Result[T]) Index() int { return r.index }

// Status returns the processing outcome.
func (r Result[T]) Status() ItemStatus { return r.status }

// Value returns the item value; zero on error.
func (r Result[T]) Value() T { return r.value }

// Err returns the error, if any.
func (r Result[T]) Err() error { return r.err }

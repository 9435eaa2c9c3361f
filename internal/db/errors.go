package db

import "errors"

var (
	// ErrKeyNotFound is returned by Get for a missing or expired key.
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrNotInteger is returned by IncrWithTTL when the key holds a non-counter value.
	ErrNotInteger = errors.New("db: value is not an integer")
)

// Failing operation names carried by Error.
const (
	OpPing = "ping"
	OpGet  = "get"
	OpSet  = "set"
	OpIncr = "incr"
)

// Error records which store operation failed and on which key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return "db " + e.Op + ": " + e.Err.Error()
	}
	return "db " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

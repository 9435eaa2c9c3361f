// Package db defines the key-value store behind the explanation cache and
// the token budget counters. Drivers live in subpackages.
package db

import (
	"context"
	"time"
)

// Store is what the service needs from a driver.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore covers cached explanations (Get, SetWithTTL) and expiring
// counters (IncrWithTTL).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrWithTTL adds delta to the counter at key and returns the new value.
	// The ttl is applied only when the counter has no expiry yet, so repeated
	// increments never push the expiry forward.
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

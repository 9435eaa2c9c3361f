package health

import "context"

// Pinger checks KV store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SearchInitializer checks that the search index can be built.
type SearchInitializer interface {
	Initialize(ctx context.Context) error
}

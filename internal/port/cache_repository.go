package port

import (
	"context"
	"time"
)

// ReportCache is a non-authoritative cache in front of reporting queries.
// Implementations must tolerate being stale; the store stays the only owner
// of durable state.
type ReportCache interface {
	// GetJSON unmarshals the cached value into dest, reporting whether the key
	// was present.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)

	// SetJSON stores a JSON-encoded value with a TTL.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error

	// BumpGeneration invalidates all report keys by advancing the generation
	// counter mixed into cache keys.
	BumpGeneration(ctx context.Context) error

	// Generation returns the current generation counter.
	Generation(ctx context.Context) (int64, error)
}

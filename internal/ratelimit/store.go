// Package ratelimit holds fixed-window attempt counters shared by the HTTP
// rate-limit middleware.
//
// A counter is created by the first Hit in a window with the given decay
// and disappears once the decay elapses. Hit is atomic: concurrent callers
// on the same key always observe distinct counts.
package ratelimit

import (
	"context"
	"time"
)

// Store is an attempt counter keyed by an opaque string.
type Store interface {
	// Hit increments the counter, creating it with the given decay if it does
	// not exist, and returns the count after the increment.
	Hit(ctx context.Context, key string, decay time.Duration) (int, error)
	// TooManyAttempts reports whether the counter has reached maxAttempts.
	TooManyAttempts(ctx context.Context, key string, maxAttempts int) (bool, error)
	// Attempts returns the current count, zero when no window is open.
	Attempts(ctx context.Context, key string) (int, error)
	// AvailableIn returns the time left until the window resets.
	AvailableIn(ctx context.Context, key string) (time.Duration, error)
	// Clear removes the counter.
	Clear(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by an external service.
type Pinger interface {
	Ping(ctx context.Context) error
}

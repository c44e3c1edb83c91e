package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store for single-instance deployments.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

type counter struct {
	attempts int
	resetAt  time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// live returns the counter for key if its window is still open. Callers hold mu.
func (s *MemoryStore) live(key string, now time.Time) *counter {
	c, ok := s.counters[key]
	if !ok {
		return nil
	}
	if !now.Before(c.resetAt) {
		delete(s.counters, key)
		return nil
	}
	return c
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, decay time.Duration) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.live(key, now)
	if c == nil {
		c = &counter{resetAt: now.Add(decay)}
		s.counters[key] = c
	}
	c.attempts++
	return c.attempts, nil
}

// TooManyAttempts implements Store.
func (s *MemoryStore) TooManyAttempts(ctx context.Context, key string, maxAttempts int) (bool, error) {
	n, err := s.Attempts(ctx, key)
	if err != nil {
		return false, err
	}
	return n >= maxAttempts, nil
}

// Attempts implements Store.
func (s *MemoryStore) Attempts(_ context.Context, key string) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.live(key, now); c != nil {
		return c.attempts, nil
	}
	return 0, nil
}

// AvailableIn implements Store.
func (s *MemoryStore) AvailableIn(_ context.Context, key string) (time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.live(key, now); c != nil {
		return c.resetAt.Sub(now), nil
	}
	return 0, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	return nil
}

// Len returns the number of tracked counters, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// Cleanup drops every counter whose window has elapsed.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, c := range s.counters {
		if !now.Before(c.resetAt) {
			delete(s.counters, k)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

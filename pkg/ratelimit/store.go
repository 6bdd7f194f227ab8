package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store holds the per-key window counters used by a Limiter.
type Store interface {
	// Hit records one request for key. If the key has no window, or its
	// window started at least one window length before now, the window is
	// reset to start at now with a count of 1. Otherwise the count is
	// incremented. It returns the count after the update. The whole
	// read-modify-write is atomic per key.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)

	Sweeper
}

// Sweeper removes state that has been idle since before cutoff.
type Sweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// counter is one client's window. evicted is set under mu when the counter
// is removed from the map so that a concurrent Hit holding a stale pointer
// retries against a fresh counter instead of losing its increment.
type counter struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
	evicted     bool
}

// MemoryStore is an in-process Store. Each key carries its own mutex, so
// requests for different keys never contend and a sweep only ever holds
// one key's lock at a time.
type MemoryStore struct {
	counters sync.Map // string -> *counter
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	for {
		v, ok := s.counters.Load(key)
		if !ok {
			v, _ = s.counters.LoadOrStore(key, &counter{})
		}
		c := v.(*counter)

		c.mu.Lock()
		if c.evicted {
			c.mu.Unlock()
			continue
		}
		if c.count == 0 || now.Sub(c.windowStart) >= window {
			c.windowStart = now
			c.count = 1
		} else {
			c.count++
		}
		n := c.count
		c.mu.Unlock()
		return n, nil
	}
}

// Sweep removes every counter whose window started before cutoff.
func (s *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	s.counters.Range(func(k, v any) bool {
		if ctx.Err() != nil {
			return false
		}
		c := v.(*counter)
		c.mu.Lock()
		if c.count > 0 && c.windowStart.Before(cutoff) {
			c.evicted = true
			s.counters.CompareAndDelete(k, v)
			removed++
		}
		c.mu.Unlock()
		return true
	})
	return removed, ctx.Err()
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	s.counters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestCleanupKeepsFreshEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := t0.Add(10 * time.Minute)

	store.Hit(ctx, "old", t0, time.Minute)
	store.Hit(ctx, "recent", now.Add(-30*time.Second), time.Minute)

	c := NewCleaner(time.Minute, 2*time.Minute, store)
	if n := c.Cleanup(ctx, now); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestCleanupSweepsThrottle(t *testing.T) {
	store := NewMemoryStore()
	th := NewThrottle(1, 1)
	ctx := context.Background()

	th.Allow("10.0.0.1", t0)
	store.Hit(ctx, "10.0.0.1:/api/auth/signin", t0, time.Minute)

	c := NewCleaner(time.Minute, 2*time.Minute, store, th)
	if n := c.Cleanup(ctx, t0.Add(5*time.Minute)); n != 2 {
		t.Errorf("Cleanup() = %d, want 2", n)
	}
}

func TestCleanerRunEvictsOnTick(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store.Hit(ctx, "idle", time.Now().Add(-10*time.Minute), time.Minute)

	c := NewCleaner(10*time.Millisecond, 2*time.Minute, store)
	c.Start(ctx)

	deadline := time.After(2 * time.Second)
	for store.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("cleaner did not evict the idle entry")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCleanerRunStopsOnCancel(t *testing.T) {
	c := NewCleaner(time.Hour, time.Minute, NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewCleanerDefaults(t *testing.T) {
	c := NewCleaner(0, 0)
	if c.interval != DefaultCleanupInterval {
		t.Errorf("interval = %v, want %v", c.interval, DefaultCleanupInterval)
	}
	if c.staleAfter != DefaultStaleAfter {
		t.Errorf("staleAfter = %v, want %v", c.staleAfter, DefaultStaleAfter)
	}
}

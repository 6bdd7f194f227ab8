package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/letsplay/pkg/observability"
)

// Default cleanup cadence and staleness threshold.
const (
	DefaultCleanupInterval = 5 * time.Minute
	DefaultStaleAfter      = 2 * time.Minute
)

// Cleaner periodically evicts idle limiter state.
type Cleaner struct {
	sweepers   []Sweeper
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

// NewCleaner creates a Cleaner that every interval removes state idle for
// longer than staleAfter from each sweeper.
func NewCleaner(interval, staleAfter time.Duration, sweepers ...Sweeper) *Cleaner {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Cleaner{
		sweepers:   sweepers,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Cleanup removes every entry whose window started more than staleAfter
// before now and returns how many were removed.
func (c *Cleaner) Cleanup(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-c.staleAfter)
	total := 0
	for _, s := range c.sweepers {
		n, err := s.Sweep(ctx, cutoff)
		total += n
		if err != nil {
			slog.Warn("rate limit cleanup failed", "error", err)
		}
	}
	if total > 0 {
		observability.RateLimitEvictedTotal.Add(float64(total))
		slog.Debug("rate limit cleanup", "evicted", total)
	}
	return total
}

// Run sweeps on every tick until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup(ctx, c.now())
		}
	}
}

// Start runs the cleaner in a background goroutine.
func (c *Cleaner) Start(ctx context.Context) {
	go c.Run(ctx)
}

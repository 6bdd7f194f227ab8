package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/letsplay/pkg/debug"
)

// DefaultWindow is the length of one counting window.
const DefaultWindow = time.Minute

// Limiter admits at most limit requests per key per window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithWindow overrides the window length (default: one minute).
func WithWindow(d time.Duration) LimiterOption {
	return func(l *Limiter) { l.window = d }
}

// WithClock sets the time source used by the HTTP middleware.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a Limiter admitting requestsPerMinute requests per key
// and window, backed by store.
func NewLimiter(store Store, requestsPerMinute int, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  requestsPerMinute,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndRecord records a request for key at now and reports whether it is
// admitted. The limit is inclusive: the Nth request of a window is allowed,
// the (N+1)th is not. A store failure admits the request.
func (l *Limiter) CheckAndRecord(ctx context.Context, key string, now time.Time) bool {
	count, err := l.store.Hit(ctx, key, now, l.window)
	if err != nil {
		slog.Warn("rate limit store unavailable, admitting request", "key", key, "error", err)
		return true
	}
	debug.Trace(debug.RateLimit, "window hit", "key", key, "count", count, "limit", l.limit)
	return count <= l.limit
}

// Limit returns the configured requests per window.
func (l *Limiter) Limit() int {
	return l.limit
}

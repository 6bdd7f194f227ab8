package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rhuss/letsplay/pkg/observability"
)

// Throttle is a per-client token bucket for credential endpoints. It runs
// in addition to the window Limiter and smooths bursts of sign-in attempts
// from one address.
type Throttle struct {
	limit   rate.Limit
	burst   int
	buckets sync.Map // string -> *bucket
	now     func() time.Time
}

type bucket struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
	evicted  bool
}

var _ Sweeper = (*Throttle)(nil)

// NewThrottle creates a Throttle refilling perSecond tokens per second up to burst.
func NewThrottle(perSecond float64, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		limit: rate.Limit(perSecond),
		burst: burst,
		now:   time.Now,
	}
}

// Allow reports whether the client may proceed at now, consuming a token if so.
func (t *Throttle) Allow(client string, now time.Time) bool {
	for {
		v, ok := t.buckets.Load(client)
		if !ok {
			v, _ = t.buckets.LoadOrStore(client, &bucket{limiter: rate.NewLimiter(t.limit, t.burst)})
		}
		b := v.(*bucket)

		b.mu.Lock()
		if b.evicted {
			b.mu.Unlock()
			continue
		}
		b.lastSeen = now
		ok = b.limiter.AllowN(now, 1)
		b.mu.Unlock()
		return ok
	}
}

// Sweep drops buckets not used since cutoff.
func (t *Throttle) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	t.buckets.Range(func(k, v any) bool {
		if ctx.Err() != nil {
			return false
		}
		b := v.(*bucket)
		b.mu.Lock()
		if !b.lastSeen.IsZero() && b.lastSeen.Before(cutoff) {
			b.evicted = true
			t.buckets.CompareAndDelete(k, v)
			removed++
		}
		b.mu.Unlock()
		return true
	})
	return removed, ctx.Err()
}

// Middleware applies the throttle to requests matching method and path.
func (t *Throttle) Middleware(method, path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method || r.URL.Path != path {
				next.ServeHTTP(w, r)
				return
			}

			client := ClientIP(r)
			if !t.Allow(client, t.now()) {
				slog.Warn("credential throttle exceeded", "client", client, "path", path)
				observability.RateLimitRejectedTotal.WithLabelValues("signin").Inc()
				WriteTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package ratelimit

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/letsplay/pkg/observability"
)

// tooManyRequestsBody is the fixed body of every 429 response.
const tooManyRequestsBody = `{"error":"Rate limit exceeded","message":"Too many requests."}`

// WriteTooManyRequests writes the 429 rejection.
func WriteTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(tooManyRequestsBody))
}

// Middleware enforces l on every request except the bypass paths. Rejected
// requests are answered with 429 and go no further down the chain.
func Middleware(l *Limiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			if !l.CheckAndRecord(r.Context(), key, l.now()) {
				slog.Warn("rate limit exceeded", "client", key, "method", r.Method)
				observability.RateLimitRejectedTotal.WithLabelValues("window").Inc()
				WriteTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

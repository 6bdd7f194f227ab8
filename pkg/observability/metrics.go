// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the letsplay API.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets for API request latencies,
// ranging from 5ms to 5s.
var APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts HTTP requests by method, route label (see
	// RouteLabel) and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letsplay_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "letsplay_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "route"},
	)

	// InFlightRequests tracks requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "letsplay_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by a limiter
	// ("window" for the per-minute limiter, "signin" for the credential throttle).
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letsplay_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"limiter"},
	)

	// RateLimitEvictedTotal counts idle limiter entries removed by cleanup.
	RateLimitEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "letsplay_ratelimit_evicted_total",
			Help: "Rate limit entries evicted by cleanup",
		},
	)

	// AuthTokenRejectedTotal counts bearer tokens that did not yield an
	// identity, by reason. The request continues anonymously.
	AuthTokenRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letsplay_auth_token_rejected_total",
			Help: "Bearer tokens rejected",
		},
		[]string{"reason"},
	)

	// AuthDeniedTotal counts requests denied by the authorization policy, by status code.
	AuthDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letsplay_auth_denied_total",
			Help: "Authorization denials",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InFlightRequests,
		RateLimitRejectedTotal,
		RateLimitEvictedTotal,
		AuthTokenRejectedTotal,
		AuthDeniedTotal,
	)
}

package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// routeSegments are the literal path segments of the API. Any other
// segment under /api is an identifier and collapses to {id}.
var routeSegments = map[string]bool{
	"api": true, "auth": true, "signin": true, "signup": true,
	"products": true, "user": true, "users": true, "me": true,
}

// maxRouteDepth bounds label cardinality for arbitrary paths.
const maxRouteDepth = 4

// RouteLabel maps a request path to a bounded route label:
// "/api/products/3f2a" becomes "/api/products/{id}". Paths outside the API
// other than the probes and metrics become "other".
func RouteLabel(path string) string {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return path
	}
	if !strings.HasPrefix(path, "/api/") {
		return "other"
	}

	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) > maxRouteDepth {
		return "other"
	}
	for i, s := range segs {
		if !routeSegments[s] {
			segs[i] = "{id}"
		}
	}
	return "/" + strings.Join(segs, "/")
}

// MetricsMiddleware records letsplay_requests_total (method, route, status
// class), letsplay_request_duration_seconds (method, route) and
// letsplay_requests_in_flight.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlightRequests.Inc()
		defer InFlightRequests.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := RouteLabel(r.URL.Path)
		RequestsTotal.WithLabelValues(r.Method, route, statusClass(sw.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// statusWriter captures the first status code written.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

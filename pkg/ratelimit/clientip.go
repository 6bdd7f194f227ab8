package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address of r. It checks, in order, the first
// X-Forwarded-For entry, X-Real-IP, and the transport peer address, and
// falls back to "unknown". Forwarding headers are trusted as sent, so the
// service must sit behind a proxy that sets them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		if host != "" {
			return host
		}
	}
	return "unknown"
}

// ClientKey returns the limiter key of r: client address and request path.
func ClientKey(r *http.Request) string {
	return ClientIP(r) + ":" + r.URL.Path
}

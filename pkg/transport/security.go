package transport

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// ForceHTTPS returns middleware that redirects plain-HTTP requests to the
// https URL with 301. A request counts as secure when it arrived over TLS
// or carries X-Forwarded-Proto: https from a terminating proxy. A non-zero
// httpsPort replaces the port of the request host; zero keeps the host as
// sent.
func ForceHTTPS(enabled bool, httpsPort int) Middleware {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsSecure(r) {
				next.ServeHTTP(w, r)
				return
			}
			target := "https://" + httpsHost(r.Host, httpsPort) + r.URL.RequestURI()
			slog.Debug("redirecting to https", "target", target)
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		})
	}
}

func httpsHost(host string, port int) string {
	if port == 0 {
		return host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if port == 443 {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// IsSecure reports whether r arrived over HTTPS, directly or via a proxy.
func IsSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// SecurityHeaders returns middleware that sets hardening response headers
// on every response. HSTS is only sent for secure requests.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			if IsSecure(r) {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

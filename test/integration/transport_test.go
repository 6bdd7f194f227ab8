package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoints(t *testing.T) {
	c := newClient(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := c.do(http.MethodGet, path, nil)
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if !strings.Contains(body, "ok") {
			t.Errorf("%s: body = %q, want to contain 'ok'", path, body)
		}
	}
}

func TestMetricsExposed(t *testing.T) {
	c := newClient(t)
	// Generate at least one request sample.
	c.do(http.MethodGet, "/healthz", nil).Body.Close()

	resp := c.do(http.MethodGet, "/metrics", nil)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "letsplay_requests_total") {
		t.Error("metrics output lacks letsplay_requests_total")
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	c := newClient(t)
	_, token := c.signUp("Wanderer")

	env := expectError(t, c.as(token).do(http.MethodGet, "/api/nothing-here", nil), http.StatusNotFound)
	if env.Path != "/api/nothing-here" {
		t.Errorf("path = %q", env.Path)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	c := newClient(t)
	resp := c.do(http.MethodGet, "/healthz", nil)
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestSecurityHeaders(t *testing.T) {
	c := newClient(t)
	resp := c.do(http.MethodGet, "/api/products", nil)
	resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	// Plain HTTP test server: no HSTS.
	if got := resp.Header.Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q, want empty", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	req, err := http.NewRequest(http.MethodOptions, testEnv.BaseURL()+"/api/products", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("X-Forwarded-For", newClient(t).addr)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q", got)
	}
}

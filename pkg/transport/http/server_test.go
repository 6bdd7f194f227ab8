package http

import (
	"context"
	"io"
	"log/slog"
	"net"
	gohttp "net/http"
	"testing"
	"time"
)

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	handler := gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		io.WriteString(w, "pong")
	})
	srv := NewServer(handler, WithAddr("127.0.0.1:0"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeOn(ctx, ln) }()

	resp, err := gohttp.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeOn returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	started := make(chan struct{})
	handler := gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, "done")
	})
	srv := NewServer(handler, WithShutdownTimeout(5*time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeOn(ctx, ln) }()

	result := make(chan string, 1)
	go func() {
		resp, err := gohttp.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			result <- "error: " + err.Error()
			return
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		result <- string(b)
	}()

	<-started
	cancel()

	if got := <-result; got != "done" {
		t.Errorf("in-flight request result = %q, want done", got)
	}
	if err := <-done; err != nil {
		t.Errorf("ServeOn returned %v", err)
	}
}

func TestServerFunctionalOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(gohttp.NotFoundHandler(),
		WithAddr(":9999"),
		WithTimeouts(3*time.Second, 4*time.Second),
		WithShutdownTimeout(7*time.Second),
		WithLogger(logger),
	)

	if srv.config.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", srv.config.Addr)
	}
	if srv.httpServer.ReadTimeout != 3*time.Second || srv.httpServer.WriteTimeout != 4*time.Second {
		t.Errorf("timeouts = %v/%v", srv.httpServer.ReadTimeout, srv.httpServer.WriteTimeout)
	}
	if srv.config.ShutdownTimeout != 7*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 7s", srv.config.ShutdownTimeout)
	}
	if srv.logger != logger {
		t.Error("logger not applied")
	}
}

func TestServerTLSOption(t *testing.T) {
	plain := NewServer(gohttp.NotFoundHandler())
	if plain.TLS() {
		t.Error("server without certificate reports TLS")
	}

	srv := NewServer(gohttp.NotFoundHandler(), WithTLS("cert.pem", "key.pem"))
	if !srv.TLS() {
		t.Error("WithTLS not applied")
	}
}

func TestServerTLSMissingCertificate(t *testing.T) {
	dir := t.TempDir()
	srv := NewServer(gohttp.NotFoundHandler(), WithTLS(dir+"/missing.crt", dir+"/missing.key"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}

	select {
	case err := <-serveAsync(context.Background(), srv, ln):
		if err == nil {
			t.Error("expected error for missing certificate")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ServeOn did not fail")
	}
}

func TestRunAllStopsOthersOnFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer taken.Close()

	healthy := NewServer(gohttp.NotFoundHandler(), WithAddr("127.0.0.1:0"), WithShutdownTimeout(time.Second))
	broken := NewServer(gohttp.NotFoundHandler(), WithAddr(taken.Addr().String()))

	done := make(chan error, 1)
	go func() { done <- RunAll(context.Background(), healthy, broken) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected listen error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunAll did not return after a listener failed")
	}
}

func serveAsync(ctx context.Context, srv *Server, ln net.Listener) <-chan error {
	done := make(chan error, 1)
	go func() { done <- srv.ServeOn(ctx, ln) }()
	return done
}

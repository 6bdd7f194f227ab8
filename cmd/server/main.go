// Command server runs the letsplay users and products API.
//
// Configuration is read from a YAML file (see -config) with environment
// variable overrides:
//
//	LETSPLAY_CONFIG      - Config file path
//	APP_JWT_SECRET       - Token signing secret (required unless set in the file)
//	LETSPLAY_PORT        - Listen port (default: 8080)
//	LETSPLAY_TLS_CERT_FILE, LETSPLAY_TLS_KEY_FILE - Serve HTTPS on the listen port
//	LETSPLAY_HTTP_PORT   - Extra plain HTTP port when TLS is on
//	LETSPLAY_STORAGE     - Storage type: "memory" or "postgres" (default: "memory")
//	LETSPLAY_DEBUG       - Comma-separated debug categories
//	LETSPLAY_LOG_LEVEL   - Log level (default: INFO)
//	LETSPLAY_LOG_FORMAT  - Log format: "text" or "json" (default: "text")
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rhuss/letsplay/pkg/app"
	"github.com/rhuss/letsplay/pkg/config"
	"github.com/rhuss/letsplay/pkg/debug"
	transporthttp "github.com/rhuss/letsplay/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Start(ctx)

	opts := []transporthttp.ServerOption{
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	servers := []*transporthttp.Server{
		transporthttp.NewServer(a.Handler(), append(opts,
			transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
			transporthttp.WithTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile),
		)...),
	}
	// The plain listener shares the pipeline, so force_https redirects it.
	if cfg.Server.TLS.Enabled() && cfg.Server.TLS.HTTPPort > 0 {
		servers = append(servers, transporthttp.NewServer(a.Handler(), append(opts,
			transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.TLS.HTTPPort)),
		)...))
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"ratelimit_backend", cfg.RateLimit.Backend,
		"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
		"tls", cfg.Server.TLS.Enabled(),
	)
	return transporthttp.RunAll(ctx, servers...)
}

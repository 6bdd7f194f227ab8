package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingSecret is returned by Validate when no token signing secret is
// configured. The server cannot issue or verify tokens without one.
var ErrMissingSecret = errors.New("auth.jwt_secret is required (set APP_JWT_SECRET or auth.jwt_secret_file)")

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, ErrMissingSecret)
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0, got %s", c.Auth.TokenTTL))
	}

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	tls := c.Server.TLS
	if (tls.CertFile == "") != (tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls.cert_file and server.tls.key_file must be set together"))
	}
	if tls.HTTPPort != 0 {
		switch {
		case !tls.Enabled():
			errs = append(errs, errors.New("server.tls.http_port requires server.tls.cert_file and key_file"))
		case tls.HTTPPort < 0 || tls.HTTPPort == c.Server.Port:
			errs = append(errs, fmt.Errorf("server.tls.http_port must be > 0 and differ from server.port, got %d", tls.HTTPPort))
		}
	}

	rl := c.RateLimit
	if rl.RequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit.requests_per_minute must be > 0, got %d", rl.RequestsPerMinute))
	}
	if rl.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit.cleanup_interval must be > 0, got %s", rl.CleanupInterval))
	}
	if rl.StaleAfter < time.Minute {
		errs = append(errs, fmt.Errorf("ratelimit.stale_after must be at least the 1m window, got %s", rl.StaleAfter))
	}
	switch rl.Backend {
	case "memory":
	case "redis":
		if rl.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("ratelimit.redis.addr is required when ratelimit.backend is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("ratelimit.backend must be \"memory\" or \"redis\", got %q", rl.Backend))
	}
	if rl.SignIn.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("ratelimit.signin.per_second must be >= 0, got %v", rl.SignIn.PerSecond))
	}
	if rl.SignIn.PerSecond > 0 && rl.SignIn.Burst < 1 {
		errs = append(errs, fmt.Errorf("ratelimit.signin.burst must be >= 1 when the throttle is enabled, got %d", rl.SignIn.Burst))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	if c.CORS.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("cors.max_age must be >= 0, got %d", c.CORS.MaxAge))
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

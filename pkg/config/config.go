// Package config provides unified configuration for the letsplay server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (LETSPLAY_ prefix, plus APP_JWT_SECRET)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the letsplay server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
	Storage       StorageConfig       `yaml:"storage"`
	CORS          CORSConfig          `yaml:"cors"`
	Security      SecurityConfig      `yaml:"security"`
	Seed          SeedConfig          `yaml:"seed"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 15s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MiB
	TLS             TLSConfig     `yaml:"tls"`
}

// TLSConfig enables HTTPS on server.port. HTTPPort, when set, adds a plain
// HTTP listener next to it (typically combined with security.force_https).
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	HTTPPort int    `yaml:"http_port"`
}

// Enabled reports whether both certificate and key are configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTSecretFile string        `yaml:"jwt_secret_file"` // _file variant for jwt_secret
	TokenTTL      time.Duration `yaml:"token_ttl"`       // default: 24h
}

// RateLimitConfig holds the per-client request limiter settings.
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"` // default: 60
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`    // default: 5m
	StaleAfter        time.Duration `yaml:"stale_after"`         // default: 2m
	Backend           string        `yaml:"backend"`             // "memory" or "redis", default: "memory"
	Redis             RedisConfig   `yaml:"redis"`
	SignIn            SignInConfig  `yaml:"signin"`
}

// RedisConfig holds the shared counter store connection.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
	KeyPrefix    string `yaml:"key_prefix"`
}

// SignInConfig holds the credential endpoint token bucket. PerSecond 0
// disables it.
type SignInConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"` // seconds
}

// SecurityConfig holds transport security settings.
type SecurityConfig struct {
	ForceHTTPS      bool `yaml:"force_https"`
	SecurityHeaders bool `yaml:"security_headers"`
}

// SeedConfig controls creation of the demo accounts at startup.
type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log verbosity settings. The LETSPLAY_DEBUG and
// LETSPLAY_LOG_LEVEL environment variables take precedence (see pkg/debug).
type LoggingConfig struct {
	Debug string `yaml:"debug"` // comma-separated debug categories
	Level  string `yaml:"level"`  // TRACE, DEBUG, INFO, WARN, ERROR
	Format string `yaml:"format"` // text or json, default: text
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			CleanupInterval:   5 * time.Minute,
			StaleAfter:        2 * time.Minute,
			Backend:           "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "letsplay:rl:",
			},
			SignIn: SignInConfig{
				Burst: 5,
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:       25,
				MigrateOnStart: true,
			},
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://localhost:4200"},
			AllowCredentials: true,
			MaxAge:           3600,
		},
		Security: SecurityConfig{
			SecurityHeaders: true,
		},
		Seed: SeedConfig{
			Enabled: true,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, LETSPLAY_CONFIG env, ./config.yaml, /etc/letsplay/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. LETSPLAY_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/letsplay/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("LETSPLAY_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/letsplay/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Numeric
// variables that do not parse are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	// APP_JWT_SECRET is the name deployments already use; it wins.
	if v := os.Getenv("APP_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	} else if v := os.Getenv("LETSPLAY_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v := os.Getenv("LETSPLAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LETSPLAY_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LETSPLAY_TLS_CERT_FILE"); v != "" {
		cfg.Server.TLS.CertFile = v
	}
	if v := os.Getenv("LETSPLAY_TLS_KEY_FILE"); v != "" {
		cfg.Server.TLS.KeyFile = v
	}
	if v := os.Getenv("LETSPLAY_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LETSPLAY_HTTP_PORT: %w", err)
		}
		cfg.Server.TLS.HTTPPort = port
	}
	if v := os.Getenv("LETSPLAY_JWT_EXPIRATION_MS"); v != "" {
		d, err := parseMillis(v)
		if err != nil {
			return fmt.Errorf("LETSPLAY_JWT_EXPIRATION_MS: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}
	if v := os.Getenv("LETSPLAY_RATE_LIMIT_RPM"); v != "" {
		rpm, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LETSPLAY_RATE_LIMIT_RPM: %w", err)
		}
		cfg.RateLimit.RequestsPerMinute = rpm
	}
	if v := os.Getenv("LETSPLAY_RATE_LIMIT_CLEANUP_MS"); v != "" {
		d, err := parseMillis(v)
		if err != nil {
			return fmt.Errorf("LETSPLAY_RATE_LIMIT_CLEANUP_MS: %w", err)
		}
		cfg.RateLimit.CleanupInterval = d
	}
	if v := os.Getenv("LETSPLAY_RATE_LIMIT_STALE_MINUTES"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LETSPLAY_RATE_LIMIT_STALE_MINUTES: %w", err)
		}
		cfg.RateLimit.StaleAfter = time.Duration(m) * time.Minute
	}
	if v := os.Getenv("LETSPLAY_RATE_LIMIT_BACKEND"); v != "" {
		cfg.RateLimit.Backend = v
	}
	if v := os.Getenv("LETSPLAY_REDIS_ADDR"); v != "" {
		cfg.RateLimit.Redis.Addr = v
	}
	if v := os.Getenv("LETSPLAY_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("LETSPLAY_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("LETSPLAY_CORS_ORIGINS"); v != "" {
		var origins []string
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
	if v := os.Getenv("LETSPLAY_FORCE_HTTPS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LETSPLAY_FORCE_HTTPS: %w", err)
		}
		cfg.Security.ForceHTTPS = b
	}
	return nil
}

// parseMillis parses a positive or zero integer number of milliseconds.
func parseMillis(v string) (time.Duration, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.jwt_secret_file -> auth.jwt_secret
	if cfg.Auth.JWTSecretFile != "" && cfg.Auth.JWTSecret == "" {
		val, err := readSecretFile(cfg.Auth.JWTSecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt_secret_file: %w", err)
		}
		cfg.Auth.JWTSecret = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// ratelimit.redis.password_file -> ratelimit.redis.password
	if cfg.RateLimit.Redis.PasswordFile != "" && cfg.RateLimit.Redis.Password == "" {
		val, err := readSecretFile(cfg.RateLimit.Redis.PasswordFile)
		if err != nil {
			return fmt.Errorf("ratelimit.redis.password_file: %w", err)
		}
		cfg.RateLimit.Redis.Password = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

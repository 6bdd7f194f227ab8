// Package app assembles the letsplay server from its configuration: the
// store, the services, the limiter and the request pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rhuss/letsplay/pkg/auth"
	"github.com/rhuss/letsplay/pkg/auth/jwt"
	"github.com/rhuss/letsplay/pkg/config"
	"github.com/rhuss/letsplay/pkg/observability"
	"github.com/rhuss/letsplay/pkg/ratelimit"
	"github.com/rhuss/letsplay/pkg/service"
	"github.com/rhuss/letsplay/pkg/storage"
	"github.com/rhuss/letsplay/pkg/storage/memory"
	"github.com/rhuss/letsplay/pkg/storage/postgres"
	"github.com/rhuss/letsplay/pkg/transport"
	transporthttp "github.com/rhuss/letsplay/pkg/transport/http"
)

// SignInPath is the credential endpoint guarded by the token bucket.
const SignInPath = "/api/auth/signin"

// App is a fully wired server instance.
type App struct {
	cfg     *config.Config
	store   storage.Store
	redis   *redis.Client
	cleaner *ratelimit.Cleaner
	handler http.Handler
}

// New opens the backends named by cfg and builds the request pipeline.
// The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.store = store

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "", "memory":
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func (a *App) build(ctx context.Context) error {
	cfg := a.cfg

	codec, err := jwt.NewCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	accounts, err := service.NewAccounts(a.store, codec)
	if err != nil {
		return fmt.Errorf("creating account service: %w", err)
	}
	svc := transporthttp.Services{
		Accounts: accounts,
		Users:    service.NewUsers(a.store),
		Products: service.NewProducts(a.store),
	}

	if cfg.Seed.Enabled {
		n, err := service.Seed(ctx, a.store, service.DefaultSeedAccounts)
		if err != nil {
			return fmt.Errorf("seeding accounts: %w", err)
		}
		slog.Info("seed accounts ready", "created", n)
	}

	limiterStore, err := a.limiterStore(ctx)
	if err != nil {
		return err
	}
	limiter := ratelimit.NewLimiter(limiterStore, cfg.RateLimit.RequestsPerMinute)

	sweepers := []ratelimit.Sweeper{limiterStore}
	var throttle *ratelimit.Throttle
	if cfg.RateLimit.SignIn.PerSecond > 0 {
		throttle = ratelimit.NewThrottle(cfg.RateLimit.SignIn.PerSecond, cfg.RateLimit.SignIn.Burst)
		sweepers = append(sweepers, throttle)
	}
	a.cleaner = ratelimit.NewCleaner(cfg.RateLimit.CleanupInterval, cfg.RateLimit.StaleAfter, sweepers...)

	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.MaxBodySize = cfg.Server.MaxBodySize
	var metrics http.Handler
	bypass := []string{"/healthz", "/readyz"}
	if cfg.Observability.Metrics.Enabled {
		metrics = promhttp.Handler()
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
		bypass = append(bypass, adapterCfg.MetricsPath)
	}
	adapter := transporthttp.NewAdapter(svc, a.store, metrics, adapterCfg)

	chain := &auth.AuthChain{Authenticators: []auth.Authenticator{jwt.NewAuthenticator(codec)}}

	// With TLS on, redirects from the plain listener target the HTTPS port.
	httpsPort := 0
	if cfg.Server.TLS.Enabled() {
		httpsPort = cfg.Server.Port
	}

	middlewares := []transport.Middleware{
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(slog.Default()),
		observability.MetricsMiddleware,
		transport.ForceHTTPS(cfg.Security.ForceHTTPS, httpsPort),
	}
	if cfg.Security.SecurityHeaders {
		middlewares = append(middlewares, transport.SecurityHeaders())
	}
	middlewares = append(middlewares,
		transport.CORS(transport.CORSConfig{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
		}),
		ratelimit.Middleware(limiter, bypass),
	)
	if throttle != nil {
		middlewares = append(middlewares, throttle.Middleware(http.MethodPost, SignInPath))
	}
	middlewares = append(middlewares,
		auth.Middleware(chain, service.RoleResolver(a.store), bypass),
		auth.Authorize(auth.DefaultPolicy()),
	)

	a.handler = transport.Chain(middlewares...)(adapter.Handler())
	return nil
}

func (a *App) limiterStore(ctx context.Context) (ratelimit.Store, error) {
	rl := a.cfg.RateLimit
	if rl.Backend != "redis" {
		return ratelimit.NewMemoryStore(), nil
	}
	client, err := ratelimit.DialRedis(ctx, ratelimit.RedisConfig{
		Addr:     rl.Redis.Addr,
		Password: rl.Redis.Password,
		DB:       rl.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.redis = client
	slog.Info("rate limiter backend", "type", "redis", "addr", rl.Redis.Addr)
	return ratelimit.NewRedisStore(client, rl.Redis.KeyPrefix, rl.StaleAfter), nil
}

// Handler returns the complete request pipeline.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Start launches the periodic limiter cleanup. It stops when ctx is done.
func (a *App) Start(ctx context.Context) {
	a.cleaner.Start(ctx)
}

// Close releases the store and the Redis connection.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

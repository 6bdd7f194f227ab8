package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript applies the window rule atomically inside Redis. Each key is a
// hash {start, count}. A reset sets the key to expire staleAfter after the
// window start, which takes the place of Sweep.
//
// KEYS[1] = counter key
// ARGV[1] = now (unix ms), ARGV[2] = window (ms), ARGV[3] = staleAfter (ms)
var hitScript = redis.NewScript(`
local start = tonumber(redis.call('HGET', KEYS[1], 'start'))
local now = tonumber(ARGV[1])
if start == nil or now - start >= tonumber(ARGV[2]) then
	redis.call('HSET', KEYS[1], 'start', ARGV[1], 'count', 1)
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	return 1
end
return redis.call('HINCRBY', KEYS[1], 'count', 1)
`)

// RedisStore keeps window counters in Redis so that several API instances
// share one budget per client key.
type RedisStore struct {
	client     redis.Scripter
	prefix     string
	staleAfter time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. Keys are namespaced with prefix and
// expire staleAfter after their window starts.
func NewRedisStore(client redis.Scripter, prefix string, staleAfter time.Duration) *RedisStore {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &RedisStore{client: client, prefix: prefix, staleAfter: staleAfter}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	n, err := hitScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(), window.Milliseconds(), s.staleAfter.Milliseconds(),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("redis hit %s: %w", key, err)
	}
	return n, nil
}

// Sweep is a no-op: Redis expires idle keys on its own.
func (s *RedisStore) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

// RedisConfig holds connection settings for the shared counter store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis connects to Redis and verifies the connection.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Package ratelimit provides request admission control for the letsplay API.
//
// The [Limiter] counts requests per client key in fixed one-minute windows.
// A client key is the client address joined with the request path, so every
// endpoint has an independent budget per client. Counters live in an
// injected [Store]: [MemoryStore] for a single instance, [RedisStore] when
// several instances must share counters.
//
// A [Cleaner] runs on its own ticker and evicts windows that have been idle
// longer than a safety margin. It also sweeps the per-client token buckets
// of the sign-in [Throttle].
//
// Rejected requests receive HTTP 429 with the body
//
//	{"error":"Rate limit exceeded","message":"Too many requests."}
//
// and never reach authentication or business logic.
package ratelimit

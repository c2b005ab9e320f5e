// Package ratelimit limits request rates per client key. MemoryLimiter is a
// per-process token bucket; any Limiter can be plugged into Middleware.
package ratelimit

import "context"

// Limiter decides whether a request identified by key may proceed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow consumes one unit for key. An error means the limiter itself
	// failed; Middleware lets the request through in that case.
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// NoopLimiter permits every request.
type NoopLimiter struct{}

// Allow always returns true.
func (NoopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

// Close is a no-op.
func (NoopLimiter) Close() error { return nil }

// Package ratelimit implements the service-wide token bucket that gates
// every request before authentication runs. State is keyed by client IP
// and lives either in Redis (shared across instances) or in a bounded
// in-process cache.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Config holds the token bucket parameters.
type Config struct {
	// Capacity is the maximum number of tokens a bucket holds.
	Capacity int

	// RefillRate is the refill speed in tokens per millisecond.
	// For example 0.0003 grants one token roughly every 3.3 seconds.
	RefillRate float64
}

// DefaultConfig matches the production bucket: a burst of 3 requests,
// refilling at 0.0003 tokens/ms.
var DefaultConfig = Config{
	Capacity:   3,
	RefillRate: 0.0003,
}

// Limiter admits or rejects a request for the given client key.
type Limiter interface {
	// Admit reports whether the client may proceed. An error means the
	// backing store failed, not that the client was rejected.
	Admit(ctx context.Context, key string) (bool, error)

	// RetryAfter is the wait until a rejected client earns its next token.
	RetryAfter() time.Duration
}

// retryAfter is the interval until one whole token accrues.
func (c Config) retryAfter() time.Duration {
	if c.RefillRate <= 0 {
		return time.Second
	}
	ms := math.Ceil(1 / c.RefillRate)
	return time.Duration(ms) * time.Millisecond
}

// staleAfter is how long an untouched bucket stays interesting: the time
// to refill from empty to full, doubled for slack. Used as the Redis TTL.
func (c Config) staleAfter() time.Duration {
	if c.RefillRate <= 0 || c.Capacity <= 0 {
		return time.Hour
	}
	ms := math.Ceil(float64(c.Capacity) / c.RefillRate)
	return 2 * time.Duration(ms) * time.Millisecond
}

// advance applies the refill rule to a bucket observed at lastMs and
// brings it up to nowMs: whole tokens only, clamped at capacity.
func (c Config) advance(tokens float64, lastMs, nowMs int64) float64 {
	elapsed := nowMs - lastMs
	if elapsed <= 0 {
		return tokens
	}
	refill := math.Floor(float64(elapsed) * c.RefillRate)
	return math.Min(float64(c.Capacity), tokens+refill)
}

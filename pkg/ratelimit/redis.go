package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitScript performs the bucket read-modify-write server-side so that
// concurrent requests for the same key are serialized by Redis itself.
//
// KEYS[1] bucket key
// ARGV[1] capacity, ARGV[2] refill rate (tokens/ms), ARGV[3] now (ms),
// ARGV[4] key TTL (ms)
var admitScript = redis.NewScript(`
local tokens = tonumber(redis.call('HGET', KEYS[1], 'token_count'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_refill_ms'))
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

local elapsed = now - last
if elapsed > 0 then
  tokens = math.min(capacity, tokens + math.floor(elapsed * rate))
end

local allowed = 0
if tokens > 0 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'token_count', tostring(tokens))
redis.call('HSET', KEYS[1], 'last_refill_ms', tostring(now))
redis.call('PEXPIRE', KEYS[1], ARGV[4])

return allowed
`)

// RedisLimiter keeps bucket state in a Redis hash per client key, shared
// by every instance of the service.
type RedisLimiter struct {
	cfg    Config
	client redis.UniversalClient
	now    func() time.Time
	prefix string
}

// NewRedisLimiter wraps an existing Redis client.
func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		cfg:    cfg,
		client: client,
		now:    time.Now,
		prefix: "ratelimit:",
	}
}

// SetClock overrides the time source. Tests only.
func (l *RedisLimiter) SetClock(now func() time.Time) { l.now = now }

// Admit runs the bucket script for the client's key. Store failures are
// returned to the caller, which decides the fail-open policy.
func (l *RedisLimiter) Admit(ctx context.Context, key string) (bool, error) {
	nowMs := l.now().UnixMilli()
	ttlMs := l.cfg.staleAfter().Milliseconds()

	res, err := admitScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		l.cfg.Capacity,
		l.cfg.RefillRate,
		nowMs,
		ttlMs,
	).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis admit: %w", err)
	}

	return res == 1, nil
}

func (l *RedisLimiter) RetryAfter() time.Duration { return l.cfg.retryAfter() }

package ratelimit

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxKeys bounds the in-process bucket cache. Evicting the least
// recently used bucket effectively refills it, which is acceptable: the
// cache is sized so eviction only happens under a very wide client spread.
const DefaultMaxKeys = 10000

type bucket struct {
	tokens float64
	lastMs int64
}

// MemoryLimiter is a process-local token bucket store. It is used when no
// Redis address is configured, and as a drop-in double in tests.
type MemoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets *lru.Cache[string, *bucket]
}

// NewMemoryLimiter builds a MemoryLimiter holding at most maxKeys buckets.
// maxKeys <= 0 selects DefaultMaxKeys.
func NewMemoryLimiter(cfg Config, maxKeys int) *MemoryLimiter {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	cache, _ := lru.New[string, *bucket](maxKeys)
	return &MemoryLimiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: cache,
	}
}

// SetClock overrides the time source. Tests only.
func (l *MemoryLimiter) SetClock(now func() time.Time) { l.now = now }

// Admit takes one token from the client's bucket if any are available.
// The read-modify-write is serialized so concurrent requests from one
// client can never double-spend a token.
func (l *MemoryLimiter) Admit(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := l.now().UnixMilli()

	b, ok := l.buckets.Get(key)
	if !ok {
		b = &bucket{tokens: float64(l.cfg.Capacity), lastMs: nowMs}
		l.buckets.Add(key, b)
	}

	b.tokens = l.cfg.advance(b.tokens, b.lastMs, nowMs)
	b.lastMs = nowMs

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

func (l *MemoryLimiter) RetryAfter() time.Duration { return l.cfg.retryAfter() }

// Package rate implementa rate limiting de ventana fija para POST /auth y POST /user.
package rate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(hits, max int64, ttl, window time.Duration) Result {
	if ttl <= 0 {
		ttl = window
	}
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{Allowed: hits <= max, Remaining: remaining, CurrentHits: hits, WindowTTL: ttl}
	if !res.Allowed {
		res.RetryAfter = ttl.Round(time.Second)
		if res.RetryAfter < time.Second {
			res.RetryAfter = time.Second
		}
	}
	return res
}

// RedisLimiter: fixed window (INCR + EXPIRE), compartido entre instancias.
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
	Now    func() time.Time
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{Client: client, Prefix: prefix, Max: int64(max), Window: window, Now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := l.Now().UTC().Truncate(l.Window)
	redisKey := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: redis: %w", err)
	}

	window := ttl.Val()
	// expiry en el primer hit
	if incr.Val() == 1 {
		if err := l.Client.Expire(ctx, redisKey, l.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate: redis expire: %w", err)
		}
		window = l.Window
	}
	return newResult(incr.Val(), l.Max, window, l.Window), nil
}

// MemoryLimiter: la misma ventana fija en proceso, para cache.kind=memory.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration
	Now    func() time.Time

	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		Now:    time.Now,
		c:      gocache.New(window, window),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	now := l.Now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	l.mu.Lock()
	var hits int64 = 1
	if v, ok := l.c.Get(k); ok {
		hits = v.(int64) + 1
	}
	l.c.Set(k, hits, l.Window)
	l.mu.Unlock()

	return newResult(hits, l.Max, winStart.Add(l.Window).Sub(now), l.Window), nil
}

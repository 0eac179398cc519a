package contact

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another submission from key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	start time.Time
	count int
}

// MemoryLimiter is a per-process fixed-window limiter.
type MemoryLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string]*bucket
}

const memoryLimiterSweepAt = 4096

// NewMemoryLimiter allows limit submissions per key in each window.
func NewMemoryLimiter(limit int, per time.Duration) *MemoryLimiter {
	return &MemoryLimiter{max: limit, window: per, now: time.Now, hits: map[string]*bucket{}}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.hits) >= memoryLimiterSweepAt {
		for k, w := range l.hits {
			if now.Sub(w.start) >= l.window {
				delete(l.hits, k)
			}
		}
	}
	w, ok := l.hits[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.hits[key] = &bucket{start: now, count: 1}
		return true, nil
	}
	if w.count >= l.max {
		return false, nil
	}
	w.count++
	return true, nil
}

// RedisLimiter shares a fixed-window counter across instances via INCR/TTL/EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
}

// NewRedisLimiter allows limit submissions per key in each window.
func NewRedisLimiter(client *redis.Client, limit int, per time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "lmstudio:contact:rl:", max: int64(limit), window: per}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	k := l.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, err
	}
	// a counter without expiry would block the key forever; set it on any call that finds none
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}
	return incr.Val() <= l.max, nil
}

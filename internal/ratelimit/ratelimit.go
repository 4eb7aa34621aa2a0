// Package ratelimit is a fixed-window request counter kept in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type Limiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

func New(rdb redis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, window: window, now: time.Now}
}

func (l *Limiter) Limit() int { return l.limit }

// Allow counts one hit for id under resource. The window starts on the first hit.
func (l *Limiter) Allow(ctx context.Context, resource, id string) (Result, error) {
	if l == nil || l.rdb == nil {
		return Result{}, errors.New("ratelimit: redis client is nil")
	}
	key := fmt.Sprintf("rl:%s:%s", resource, id)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("ratelimit: %w", err)
	}

	cnt := incr.Val()
	ttl := pttl.Val()
	if cnt == 1 || ttl < 0 {
		if err := l.rdb.PExpire(ctx, key, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
		ttl = l.window
	}

	remaining := l.limit - int(cnt)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   cnt <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		Reset:     l.now().Add(ttl),
	}, nil
}

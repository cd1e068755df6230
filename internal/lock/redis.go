package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis is a distributed keyed lock. A held lock expires after ttl so a crashed holder
// cannot block an order forever; callers must finish well within ttl.
type Redis struct {
	client  *redislock.Client
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
}

// NewRedis builds a lock over rdb. Waiters retry every backoff for at most wait.
func NewRedis(rdb *redis.Client, ttl, wait, backoff time.Duration) *Redis {
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &Redis{client: redislock.New(rdb), ttl: ttl, wait: wait, backoff: backoff}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	retries := int(r.wait / r.backoff)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.backoff), retries),
	}

	obtainCtx := ctx
	if r.wait > 0 {
		var cancel context.CancelFunc
		obtainCtx, cancel = context.WithTimeout(ctx, r.wait+r.backoff)
		defer cancel()
	}

	l, err := r.client.Obtain(obtainCtx, "lock:"+key, r.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s: %w", key, ErrTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := l.Release(ctx); err != nil {
			if errors.Is(err, redislock.ErrLockNotHeld) {
				return fmt.Errorf("lock %s expired before release", key)
			}
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}

package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal(time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "purchase_order:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocal_DistinctKeysDoNotBlock(t *testing.T) {
	l := NewLocal(50 * time.Millisecond)
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "purchase_order:1")
	require.NoError(t, err)
	defer unlockA(ctx)

	unlockB, err := l.Lock(ctx, "purchase_order:2")
	require.NoError(t, err)
	assert.NoError(t, unlockB(ctx))
}

func TestLocal_TimesOut(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "purchase_order:1")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "purchase_order:1")
	assert.ErrorIs(t, err, ErrTimeout)

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "release is idempotent")

	unlock, err = l.Lock(ctx, "purchase_order:1")
	require.NoError(t, err)
	assert.NoError(t, unlock(ctx))
}

func TestLocal_ContextCancelled(t *testing.T) {
	l := NewLocal(0)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedis_ExclusiveAcrossClients(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set — skipping redis lock test")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	a := NewRedis(rdb, 5*time.Second, 50*time.Millisecond, 10*time.Millisecond)
	b := NewRedis(rdb, 5*time.Second, 50*time.Millisecond, 10*time.Millisecond)
	key := "test:purchase_order:" + time.Now().Format("150405.000000")

	unlock, err := a.Lock(ctx, key)
	require.NoError(t, err)

	_, err = b.Lock(ctx, key)
	assert.ErrorIs(t, err, ErrTimeout)

	require.NoError(t, unlock(ctx))

	unlock, err = b.Lock(ctx, key)
	require.NoError(t, err)
	assert.NoError(t, unlock(ctx))
}

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_SetGet(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set — skipping redis cache test")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	c := NewRedis(rdb, "test:"+time.Now().Format("150405.000000")+":")

	type payload struct {
		Total string `json:"total"`
		Count int    `json:"count"`
	}

	var got payload
	hit, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "report", payload{Total: "118.00", Count: 2}, time.Minute))
	hit, err = c.Get(ctx, "report", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Total: "118.00", Count: 2}, got)
}

package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGetDelete(t *testing.T) {
	cache := NewCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "account:1", []byte(`{"id":"1"}`), time.Minute))

	got, err := cache.Get(ctx, "account:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"1"}`), got)

	require.NoError(t, cache.Delete(ctx, "account:1"))

	_, err = cache.Get(ctx, "account:1")
	assert.ErrorIs(t, err, goredis.Nil)
}

func TestCacheGetMissing(t *testing.T) {
	cache := NewCache(newTestClient(t))

	_, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, goredis.Nil)
}

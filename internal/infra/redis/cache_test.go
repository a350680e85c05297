package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestCache_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCache(client, zap.NewNop(), "ads")
	ctx := context.Background()

	data, err := cache.Get(ctx, "placement:home")
	require.NoError(t, err)
	assert.Nil(t, data, "missing key should be a miss, not an error")

	require.NoError(t, cache.Set(ctx, "placement:home", []byte(`[1]`), time.Minute))
	assert.True(t, mr.Exists("ads:cache:placement:home"), "key should be prefixed")

	data, err = cache.Get(ctx, "placement:home")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), data)

	mr.FastForward(61 * time.Second)
	data, err = cache.Get(ctx, "placement:home")
	require.NoError(t, err)
	assert.Nil(t, data, "entry should expire with its TTL")
}

func TestCache_Delete(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewCache(client, zap.NewNop(), "ads")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "k"))
	require.NoError(t, cache.Delete(ctx, "k"), "delete is idempotent")

	data, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCache_ClearOnlyTouchesPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCache(client, zap.NewNop(), "ads")
	ctx := context.Background()

	for i := 0; i < clearBatchSize+25; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("placement:%d", i), []byte("x"), time.Minute))
	}
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, cache.Clear(ctx))

	assert.Equal(t, []string{"other:key"}, mr.Keys())
}

func TestCache_ClearKeepsInterestsAndLocksUnderSharedPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	const prefix = "ad-placement"
	cache := NewCache(client, zap.NewNop(), prefix)
	store := NewInterestStore(client, zap.NewNop(), prefix, time.Hour)
	ctx := context.Background()

	_, err := store.Add(ctx, "visitor-1", "tea")
	require.NoError(t, err)
	require.NoError(t, mr.Set(prefix+":lock:ad-expiry", "token"))
	require.NoError(t, cache.Set(ctx, "placement:home", []byte("x"), time.Minute))

	require.NoError(t, cache.Clear(ctx))

	assert.False(t, mr.Exists(prefix+":cache:placement:home"))
	assert.True(t, mr.Exists(prefix+":lock:ad-expiry"), "lock should survive a cache clear")

	interests, err := store.Get(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tea"}, []string(interests))
}

func TestCache_GetFailsWhenRedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCache(client, zap.NewNop(), "ads")

	mr.Close()

	_, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, cache.Ping(context.Background()))
}

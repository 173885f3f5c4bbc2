package redis_a_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/stocktrack-be/internal/adapters/redis_adapter"
	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/test/helpers"
)

func newTestCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	stock := domain.ItemStock{
		ItemID:        uuid.New(),
		SKU:           "RPI-4B-8G",
		TotalQuantity: 12,
		MinimumStock:  5,
		Status:        domain.ItemStatusInStock,
	}

	require.NoError(t, cache.Set(ctx, "stock:item:1", stock))

	var got domain.ItemStock
	require.NoError(t, cache.Get(ctx, "stock:item:1", &got))
	assert.Equal(t, stock.ItemID, got.ItemID)
	assert.Equal(t, 12, got.TotalQuantity)
	assert.Equal(t, domain.ItemStatusInStock, got.Status)

	assert.Equal(t, 5*time.Minute, mr.TTL("stock:item:1"))
}

func TestCache_GetMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	var got string
	err := cache.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_SetWithTTL_Expires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "dash:summary", map[string]int{"total_items": 3}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got map[string]int
	assert.ErrorIs(t, cache.Get(ctx, "dash:summary", &got), redis_a.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "a", 1))
	require.NoError(t, cache.Set(ctx, "b", 2))
	require.NoError(t, cache.Set(ctx, "c", 3))

	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.NoError(t, cache.Delete(ctx))

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
	assert.True(t, mr.Exists("c"))
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	for _, key := range []string{"stock:item:1", "stock:item:2", "dash:summary"} {
		require.NoError(t, cache.Set(ctx, key, key))
	}

	require.NoError(t, cache.DeletePattern(ctx, "stock:item:*"))

	assert.False(t, mr.Exists("stock:item:1"))
	assert.False(t, mr.Exists("stock:item:2"))
	assert.True(t, mr.Exists("dash:summary"))

	require.NoError(t, cache.DeletePattern(ctx, "nothing:*"))
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches_once_then_serves_cached", func(t *testing.T) {
		cache, _ := newTestCache(t)
		calls := 0
		fetch := func() (interface{}, error) {
			calls++
			return &domain.ItemStock{SKU: "ESP32", TotalQuantity: 4}, nil
		}

		for i := 0; i < 3; i++ {
			var got domain.ItemStock
			require.NoError(t, cache.GetOrSet(ctx, "stock:item:esp", &got, fetch, time.Minute))
			assert.Equal(t, "ESP32", got.SKU)
			assert.Equal(t, 4, got.TotalQuantity)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("fetch_error_is_returned_unchanged", func(t *testing.T) {
		cache, mr := newTestCache(t)
		notFound := domain.NewNotFoundError("item", uuid.New())

		var got domain.ItemStock
		err := cache.GetOrSet(ctx, "stock:item:gone", &got, func() (interface{}, error) {
			return nil, notFound
		}, time.Minute)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.False(t, mr.Exists("stock:item:gone"))
	})

	t.Run("reads_through_when_redis_is_down", func(t *testing.T) {
		cache, mr := newTestCache(t)
		mr.Close()

		var got int
		err := cache.GetOrSet(ctx, "counter", &got, func() (interface{}, error) {
			return 42, nil
		}, time.Minute)

		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	ok, err := cache.SetNX(ctx, "alert:item:1:low_stock", "1", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "alert:item:1:low_stock", "1", 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(11 * time.Minute)

	ok, err = cache.SetNX(ctx, "alert:item:1:low_stock", "1", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_Ping(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, cache.Ping(ctx))

	mr.Close()
	err := cache.Ping(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, redis_a.ErrCacheMiss))
}

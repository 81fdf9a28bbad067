package kv

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, 0), mr
}

func TestRedisSetGetDelete(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "refresh:u1", "tok", time.Minute))
	got, err := store.Get(ctx, "refresh:u1")
	require.NoError(t, err)
	require.Equal(t, "tok", got)

	ok, err := store.Exists(ctx, "refresh:u1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Delete(ctx, "refresh:u1"))
	_, err = store.Get(ctx, "refresh:u1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "refresh:u1"))
}

func TestRedisSetRequiresTTL(t *testing.T) {
	store, _ := newTestRedis(t)
	require.Error(t, store.Set(context.Background(), "k", "v", 0))
}

func TestRedisValuesExpire(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "otp", "123456", 5*time.Minute))
	ttl, err := store.TTL(ctx, "otp")
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, ttl)

	mr.FastForward(5*time.Minute + time.Second)
	ok, err := store.Exists(ctx, "otp")
	require.NoError(t, err)
	require.False(t, ok)

	ttl, err = store.TTL(ctx, "otp")
	require.NoError(t, err)
	require.Zero(t, ttl)
}

func TestRedisIncrExpire(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	n, err := store.Incr(ctx, "login:attempt:a@x.io")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, store.Expire(ctx, "login:attempt:a@x.io", time.Minute))

	n, err = store.Incr(ctx, "login:attempt:a@x.io")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	mr.FastForward(2 * time.Minute)
	n, err = store.Incr(ctx, "login:attempt:a@x.io")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestRedisSetNX(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "verify:email:u1", "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.SetNX(ctx, "verify:email:u1", "b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := store.Get(ctx, "verify:email:u1")
	require.NoError(t, err)
	require.Equal(t, "a", got)
}

func TestRedisCompareAndDelete(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "forgot:password:reset:a@x.io", "fp", 10*time.Minute))
	mr.FastForward(4 * time.Minute)

	_, ok, err := store.CompareAndDelete(ctx, "forgot:password:reset:a@x.io", "other")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, mr.Exists("forgot:password:reset:a@x.io"))

	remaining, ok, err := store.CompareAndDelete(ctx, "forgot:password:reset:a@x.io", "fp")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 6*time.Minute, remaining)
	require.False(t, mr.Exists("forgot:password:reset:a@x.io"))

	_, ok, err = store.CompareAndDelete(ctx, "forgot:password:reset:a@x.io", "fp")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCompareAndDeleteSingleWinner(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "otp", "fp", time.Minute))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := store.CompareAndDelete(ctx, "otp", "fp"); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func TestRedisUnavailable(t *testing.T) {
	store, mr := newTestRedis(t)
	mr.Close()

	ctx := context.Background()
	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, store.Set(ctx, "k", "v", time.Minute), ErrUnavailable)
	_, err = store.Incr(ctx, "k")
	require.ErrorIs(t, err, ErrUnavailable)
	_, _, err = store.CompareAndDelete(ctx, "k", "v")
	require.ErrorIs(t, err, ErrUnavailable)
}

package rate

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/credflow/internal/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T) (*Counter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCounter(kv.NewRedis(client, time.Second)), mr
}

func TestCounterWindowAnchoredOnFirstHit(t *testing.T) {
	c, mr := newTestCounter(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.Hit(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.Equal(t, i, n)
	}
	require.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(30 * time.Second)
	_, err := c.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, mr.TTL("k"))

	mr.FastForward(31 * time.Second)
	n, err := c.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestCounterReset(t *testing.T) {
	c, mr := newTestCounter(t)
	ctx := context.Background()

	_, err := c.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Reset(ctx, "k"))
	require.False(t, mr.Exists("k"))
}

func TestCounterStoreDown(t *testing.T) {
	c, mr := newTestCounter(t)
	mr.Close()

	_, err := c.Hit(context.Background(), "k", time.Minute)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

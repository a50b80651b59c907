package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/janus/internal/cache"
)

func TestMemoryBasicOps(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("test")

	_, err := c.Get(ctx, "missing")
	require.True(t, cache.IsNotFound(err))

	require.NoError(t, c.Set(ctx, "jti-1", "revoked", time.Minute))

	v, err := c.Get(ctx, "jti-1")
	require.NoError(t, err)
	require.Equal(t, "revoked", v)

	ok, err := c.Exists(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "jti-1"))
	ok, err = c.Exists(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")

	require.NoError(t, c.Set(ctx, "jti-2", "revoked", 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, err := c.Get(ctx, "jti-2")
	require.True(t, cache.IsNotFound(err))
}

func TestRedisBasicOps(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	c, err := cache.NewRedis(cache.Config{Addr: srv.Addr(), Prefix: "janus"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(ctx, "missing")
	require.True(t, cache.IsNotFound(err))

	require.NoError(t, c.Set(ctx, "jti-1", "revoked", time.Minute))

	// La key real lleva prefijo
	require.True(t, srv.Exists("janus:jti-1"))

	v, err := c.Get(ctx, "jti-1")
	require.NoError(t, err)
	require.Equal(t, "revoked", v)

	ok, err := c.Exists(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisTTLExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	c, err := cache.NewRedis(cache.Config{Addr: srv.Addr()})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "jti-2", "revoked", time.Second))

	// miniredis no avanza el reloj solo
	srv.FastForward(2 * time.Second)

	_, err = c.Get(ctx, "jti-2")
	require.True(t, cache.IsNotFound(err))
}

func TestFactoryKinds(t *testing.T) {
	c, err := cache.New(cache.Config{Kind: "memory"})
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))

	srv := miniredis.RunT(t)
	c2, err := cache.New(cache.Config{Kind: "redis", Addr: srv.Addr()})
	require.NoError(t, err)
	require.NoError(t, c2.Ping(context.Background()))
}

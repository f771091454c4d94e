package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "availability:org-1:trip-1", payload{Free: 9}, time.Minute))

	raw, err := srv.Get("availability:org-1:trip-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"free":9}`, raw)

	var got payload
	hit, err := c.Get(ctx, "availability:org-1:trip-1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 9, got.Free)

	require.NoError(t, c.Del(ctx, "availability:org-1:trip-1"))
	hit, err = c.Get(ctx, "availability:org-1:trip-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "k", payload{Free: 1}, 30*time.Second))
	assert.Equal(t, 30*time.Second, srv.TTL("k"))

	srv.FastForward(31 * time.Second)
	var got payload
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisUndecodableValue(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)

	require.NoError(t, srv.Set("k", "not json"))
	var got payload
	hit, err := c.Get(ctx, "k", &got)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestRedisServerDown(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t)
	srv.Close()

	var got payload
	_, err := c.Get(ctx, "k", &got)
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "k", payload{}, time.Minute))
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestNewRedisPings(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := NewRedis(context.Background(), "redis://"+srv.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{MaxFailures: 3, FailureWindow: 15 * time.Minute}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newRedisThrottle(t *testing.T) (*RedisThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, testCfg), mr
}

func TestRedisCooldown(t *testing.T) {
	r, mr := newRedisThrottle(t)
	ctx := context.Background()

	ok, err := r.Cooldown(ctx, "voter-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.Cooldown(ctx, "voter-1", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = r.Cooldown(ctx, "voter-2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "keys are independent")

	mr.FastForward(61 * time.Second)
	ok, err = r.Cooldown(ctx, "voter-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockout(t *testing.T) {
	r, mr := newRedisThrottle(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		locked, err := r.Locked(ctx, "voter-1")
		require.NoError(t, err)
		require.False(t, locked)
		n, err := r.Fail(ctx, "voter-1")
		require.NoError(t, err)
		require.Equal(t, int64(i), n)
	}
	locked, err := r.Locked(ctx, "voter-1")
	require.NoError(t, err)
	require.True(t, locked)

	mr.FastForward(16 * time.Minute)
	locked, err = r.Locked(ctx, "voter-1")
	require.NoError(t, err)
	require.False(t, locked, "window elapsed")

	_, err = r.Fail(ctx, "voter-1")
	require.NoError(t, err)
	require.NoError(t, r.Reset(ctx, "voter-1"))
	require.False(t, mr.Exists(failurePrefix+"voter-1"))
}

func TestMemoryThrottle(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := NewMemory(testCfg)
	m.now = c.now
	ctx := context.Background()

	ok, _ := m.Cooldown(ctx, "voter-1", time.Minute)
	require.True(t, ok)
	ok, _ = m.Cooldown(ctx, "voter-1", time.Minute)
	require.False(t, ok)
	c.advance(time.Minute)
	ok, _ = m.Cooldown(ctx, "voter-1", time.Minute)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		_, err := m.Fail(ctx, "voter-1")
		require.NoError(t, err)
	}
	locked, _ := m.Locked(ctx, "voter-1")
	require.True(t, locked)

	require.NoError(t, m.Reset(ctx, "voter-1"))
	locked, _ = m.Locked(ctx, "voter-1")
	require.False(t, locked)

	for i := 0; i < 3; i++ {
		_, _ = m.Fail(ctx, "voter-1")
	}
	c.advance(15 * time.Minute)
	locked, _ = m.Locked(ctx, "voter-1")
	require.False(t, locked, "window elapsed")
}

package ratewindow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/identity/internal/identity/ratewindow"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *ratewindow.RedisCounter) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, ratewindow.NewRedisCounter(client)
}

func TestRedisCounterFixedWindow(t *testing.T) {
	t.Parallel()

	mr, c := newRedis(t)
	ctx := t.Context()

	n, err := c.Increment(ctx, "sms:rate:13800000001", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, time.Hour, mr.TTL("sms:rate:13800000001"))

	// Later increments must not push the window out
	mr.FastForward(30 * time.Minute)
	n, err = c.Increment(ctx, "sms:rate:13800000001", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Equal(t, 30*time.Minute, mr.TTL("sms:rate:13800000001"))

	// Window closes, next increment opens a fresh one
	mr.FastForward(31 * time.Minute)
	n, err = c.Increment(ctx, "sms:rate:13800000001", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRedisCounterHealsMissingTTL(t *testing.T) {
	t.Parallel()

	mr, c := newRedis(t)

	// Simulates a crash between INCR and EXPIRE
	require.NoError(t, mr.Set("stuck", "3"))
	require.Zero(t, mr.TTL("stuck"))

	n, err := c.Increment(t.Context(), "stuck", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
	require.Equal(t, time.Hour, mr.TTL("stuck"))
}

func TestRedisCounterDecrement(t *testing.T) {
	t.Parallel()

	mr, c := newRedis(t)
	ctx := t.Context()

	t.Run("gives back a unit", func(t *testing.T) {
		_, err := c.Increment(ctx, "k1", time.Hour)
		require.NoError(t, err)
		_, err = c.Increment(ctx, "k1", time.Hour)
		require.NoError(t, err)

		require.NoError(t, c.Decrement(ctx, "k1"))
		v, err := mr.Get("k1")
		require.NoError(t, err)
		require.Equal(t, "1", v)
		require.Equal(t, time.Hour, mr.TTL("k1"))
	})

	t.Run("deletes at zero", func(t *testing.T) {
		_, err := c.Increment(ctx, "k2", time.Hour)
		require.NoError(t, err)
		require.NoError(t, c.Decrement(ctx, "k2"))
		require.False(t, mr.Exists("k2"))
	})

	t.Run("missing key is a no-op", func(t *testing.T) {
		require.NoError(t, c.Decrement(ctx, "never"))
		require.False(t, mr.Exists("never"))
	})
}

func TestRedisCounterConcurrentIncrements(t *testing.T) {
	t.Parallel()

	_, c := newRedis(t)

	const workers = 20
	var wg sync.WaitGroup
	counts := make(chan int64, workers)
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.Increment(context.Background(), "race", time.Hour)
			if err != nil {
				errs <- err
				return
			}
			counts <- n
		}()
	}
	wg.Wait()
	close(counts)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every caller sees a distinct count, so at most one sees each value
	seen := make(map[int64]bool)
	for n := range counts {
		require.False(t, seen[n], "count %d observed twice", n)
		seen[n] = true
	}
	require.Len(t, seen, workers)
}

func TestRedisCounterUnavailable(t *testing.T) {
	t.Parallel()

	mr, c := newRedis(t)
	mr.Close()

	_, err := c.Increment(t.Context(), "k", time.Hour)
	require.ErrorIs(t, err, ratewindow.ErrUnavailable)
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := ratewindow.NewRedisClient(t.Context(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = ratewindow.NewRedisClient(t.Context(), "not a url")
	require.Error(t, err)
}

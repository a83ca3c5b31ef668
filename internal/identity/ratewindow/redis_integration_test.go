//go:build integration

package ratewindow_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/identity/internal/identity/ratewindow"
)

// startRedis runs a throwaway Redis 7 container. EXPIRE NX needs 7.0 or later.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := ratewindow.NewRedisClient(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCounterAgainstRedis(t *testing.T) {
	client := startRedis(t)
	c := ratewindow.NewRedisCounter(client)
	ctx := t.Context()

	t.Run("window expiry set once", func(t *testing.T) {
		key := "sms:rate:it-window"
		for i := int64(1); i <= 3; i++ {
			n, err := c.Increment(ctx, key, time.Hour)
			require.NoError(t, err)
			require.Equal(t, i, n)
		}
		ttl, err := client.TTL(ctx, key).Result()
		require.NoError(t, err)
		require.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("window resets after expiry", func(t *testing.T) {
		key := "sms:rate:it-reset"
		_, err := c.Increment(ctx, key, time.Second)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return client.Exists(ctx, key).Val() == 0
		}, 5*time.Second, 100*time.Millisecond)

		n, err := c.Increment(ctx, key, time.Second)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})

	t.Run("decrement releases a slot", func(t *testing.T) {
		key := "sms:rate:it-release"
		_, err := c.Increment(ctx, key, time.Hour)
		require.NoError(t, err)
		_, err = c.Increment(ctx, key, time.Hour)
		require.NoError(t, err)

		require.NoError(t, c.Decrement(ctx, key))
		require.Equal(t, "1", client.Get(ctx, key).Val())

		// Releasing the last slot removes the key, releasing again is a no-op.
		require.NoError(t, c.Decrement(ctx, key))
		require.NoError(t, c.Decrement(ctx, key))
		require.EqualValues(t, 0, client.Exists(ctx, key).Val())
	})

	t.Run("concurrent increments admit exactly the limit", func(t *testing.T) {
		const limit = 5
		key := "sms:rate:it-concurrent"

		var admitted atomic.Int32
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := c.Increment(ctx, key, time.Hour)
				if err == nil && n <= limit {
					admitted.Add(1)
				}
			}()
		}
		wg.Wait()

		require.EqualValues(t, limit, admitted.Load())
		require.Equal(t, "50", client.Get(ctx, key).Val())
	})
}

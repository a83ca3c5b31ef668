package ratewindow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript decrements only while the window is open. A bare DECR on an
// expired key would create it at -1 with no TTL.
var releaseScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	local n = redis.call("DECR", KEYS[1])
	if n <= 0 then
		redis.call("DEL", KEYS[1])
	end
	return n
end
return 0
`)

// RedisCounter keeps windows in Redis so every replica sees the same counts.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter wraps an existing client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

// Increment uses INCR as the single atomic step. The caller that sees 1
// opened the window and sets its expiry.
func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return count, nil
	}

	// A crash between INCR and EXPIRE leaves a key that never resets.
	// ExpireNX only applies when the key has no TTL, so live windows are untouched.
	if err := c.client.ExpireNX(ctx, key, window).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return count, nil
}

func (c *RedisCounter) Decrement(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, c.client, []string{key}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Package ratewindow implements fixed-window counters shared between
// identity service replicas.
//
// A window opens on the first increment of a key and closes when its TTL
// runs out. Later increments never extend it, so a caller can burst up to
// twice the limit across a window boundary.
package ratewindow

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps failures of the backing store.
var ErrUnavailable = errors.New("ratewindow: counter unavailable")

// Counter is a TTL-capable shared counter.
type Counter interface {
	// Increment atomically adds one to key and returns the new count. The
	// call that creates the key starts a window of the given length.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// Decrement gives back one unit, e.g. when the guarded operation failed.
	// It is a no-op once the window has closed.
	Decrement(ctx context.Context, key string) error
}

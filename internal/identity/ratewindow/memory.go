package ratewindow

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Increment drops closed windows of keys
// that were never touched again.
const sweepInterval = time.Minute

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter is a process-local Counter for tests and single-node dev
// runs. Windows are not shared between replicas.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	swept   time.Time

	// Now is the clock, tests replace it to move past window boundaries.
	Now func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*memoryEntry),
		Now:     time.Now,
	}
}

func (c *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	c.sweep(now)

	e, ok := c.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &memoryEntry{expiresAt: now.Add(window)}
		c.entries[key] = e
	}
	e.count++
	return e.count, nil
}

func (c *MemoryCounter) Decrement(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil
	}

	e.count--
	if e.count <= 0 {
		delete(c.entries, key)
	}
	return nil
}

// Len reports how many windows are held, open or not yet swept.
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCounter) sweep(now time.Time) {
	if now.Sub(c.swept) < sweepInterval {
		return
	}
	c.swept = now
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

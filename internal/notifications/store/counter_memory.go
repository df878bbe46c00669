package store

import (
	"context"
	"sync"

	id "civic/pkg/domain"
)

// InMemoryCounter caches unread counts for a single process.
type InMemoryCounter struct {
	mu     sync.Mutex
	counts map[id.UserID]int
}

func NewInMemoryCounter() *InMemoryCounter {
	return &InMemoryCounter{counts: make(map[id.UserID]int)}
}

func (c *InMemoryCounter) Get(_ context.Context, userID id.UserID) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[userID]
	return n, ok, nil
}

func (c *InMemoryCounter) Set(_ context.Context, userID id.UserID, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[userID] = max(n, 0)
	return nil
}

// Adjust shifts a cached count by delta, never below zero. Uncached users
// are left alone so the next Get reloads from the store.
func (c *InMemoryCounter) Adjust(_ context.Context, userID id.UserID, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.counts[userID]; ok {
		c.counts[userID] = max(n+delta, 0)
	}
	return nil
}

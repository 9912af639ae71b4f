// Package cache holds recent monitoring results for dashboard reads.
package cache

import (
	"context"
	"sync"
	"time"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
)

type entry struct {
	result    monitor.Result
	expiresAt time.Time
}

// InMemoryCache is the single-node and test implementation. Expired entries
// are dropped lazily on read.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[id.ProcessID]entry
	now     func() time.Time
}

// NewMemory constructs an empty in-memory cache.
func NewMemory() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[id.ProcessID]entry),
		now:     time.Now,
	}
}

func (c *InMemoryCache) Put(_ context.Context, result *monitor.Result, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[result.ProcessID] = entry{
		result:    *result,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Get returns the cached result, or nil on a miss. Expiry is a miss; stale
// results are never served.
func (c *InMemoryCache) Get(_ context.Context, processID id.ProcessID) (*monitor.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[processID]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, processID)
		return nil, nil
	}
	snapshot := e.result
	return &snapshot, nil
}

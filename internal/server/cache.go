package server

import (
	"sync"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/model"
)

// cacheEntry holds a parsed tree with the time it was read.
type cacheEntry struct {
	tree      *model.Tree
	timestamp time.Time
}

// TreeCache provides a TTL-based cache of view trees keyed by window
// hash. The empty key holds the dump of all windows.
type TreeCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   clock.Clock
}

// NewTreeCache creates a new cache. A ttl of 0 disables caching.
func NewTreeCache(ttl time.Duration, clk clock.Clock) *TreeCache {
	if clk == nil {
		clk = clock.Real()
	}
	return &TreeCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		clock:   clk,
	}
}

// Tree returns the cached tree for window if it is within TTL, otherwise
// calls read and caches the result. Errors are not cached.
func (c *TreeCache) Tree(window string, read func() (*model.Tree, error)) (*model.Tree, error) {
	if c.ttl == 0 {
		return read()
	}

	c.mu.Lock()
	if entry, ok := c.entries[window]; ok && c.clock.Now().Sub(entry.timestamp) < c.ttl {
		tree := entry.tree
		c.mu.Unlock()
		return tree, nil
	}
	c.mu.Unlock()

	tree, err := read()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[window] = cacheEntry{tree: tree, timestamp: c.clock.Now()}
	c.mu.Unlock()

	return tree, nil
}

// InvalidateAll clears the entire cache.
func (c *TreeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

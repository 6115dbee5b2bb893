package sqlscope

import (
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/pthm/sqlscope/internal/markup"
)

// DefaultCacheCapacity is the number of parsed scripts a ParseCache holds
// before it is cleared.
const DefaultCacheCapacity = 512

// cacheKey identifies a parsed script. The same text parsed under different
// hints produces different trees.
type cacheKey struct {
	script string
	hints  Hints
}

// ParseCache stores token trees keyed by script text and hints.
// It is safe for concurrent use from multiple goroutines.
//
// The cache is bounded: once it holds Capacity entries the next insert
// clears every entry first. Scripts in a program are usually a small fixed
// set, so the policy trades precision for a lock held only briefly.
// Readers see either the full pre-clear map or the post-clear map.
type ParseCache struct {
	mu       sync.RWMutex
	items    map[cacheKey]*markup.Tree
	capacity int

	group singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
	clears atomic.Uint64
}

// CacheOption configures a ParseCache.
type CacheOption func(*ParseCache)

// WithCapacity sets the number of entries held before the cache clears.
// Values below 1 are ignored.
func WithCapacity(n int) CacheOption {
	return func(c *ParseCache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// NewParseCache creates an empty parse cache.
func NewParseCache(opts ...CacheOption) *ParseCache {
	c := &ParseCache{
		items:    make(map[cacheKey]*markup.Tree),
		capacity: DefaultCacheCapacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Clears uint64
	Size   int
}

// Stats returns the current counters.
func (c *ParseCache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Clears: c.clears.Load(),
		Size:   c.Size(),
	}
}

// Size returns the number of cached trees.
func (c *ParseCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Capacity returns the configured bound.
func (c *ParseCache) Capacity() int {
	return c.capacity
}

// Contains reports whether script is cached under hints.
func (c *ParseCache) Contains(script string, hints Hints) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[cacheKey{script: script, hints: hints}]
	return ok
}

// Clear removes all entries.
func (c *ParseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[cacheKey]*markup.Tree)
}

func (c *ParseCache) get(key cacheKey) (*markup.Tree, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tree, ok := c.items[key]
	return tree, ok
}

// set stores tree and reports whether the cache was cleared to make room.
func (c *ParseCache) set(key cacheKey, tree *markup.Tree) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cleared := false
	if _, ok := c.items[key]; !ok && len(c.items) >= c.capacity {
		c.items = make(map[cacheKey]*markup.Tree)
		c.clears.Add(1)
		cleared = true
	}
	c.items[key] = tree
	return cleared
}

// load returns the cached tree for key, tokenizing on a miss. Concurrent
// misses for the same key share one tokenization.
func (c *ParseCache) load(key cacheKey) (tree *markup.Tree, hit, cleared bool, err error) {
	if tree, ok := c.get(key); ok {
		c.hits.Add(1)
		return tree, true, false, nil
	}
	c.misses.Add(1)

	flight := strconv.Itoa(int(key.hints)) + "\x00" + key.script
	v, err, _ := c.group.Do(flight, func() (any, error) {
		if tree, ok := c.get(key); ok {
			return tree, nil
		}
		tree, err := markup.Tokenize(key.script, key.hints)
		if err != nil {
			return nil, err
		}
		cleared = c.set(key, tree)
		return tree, nil
	})
	if err != nil {
		return nil, false, false, err
	}
	return v.(*markup.Tree), false, cleared, nil
}

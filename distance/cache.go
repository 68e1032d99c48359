package distance

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brensch/lantern/game"
)

// DefaultCacheSize is the number of (start, end) pairs kept per match.
const DefaultCacheSize = 10000

type pair struct {
	start game.Cell
	end   game.Cell
}

type result struct {
	dist int
	ok   bool
}

// CacheStats counts lookups since the cache was built.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// Cache memoises an Oracle with least-recently-used eviction.
//
// Entries are only valid for the walls the wrapped Oracle was built from, so
// a Cache belongs to a single match. It is safe for concurrent use.
type Cache struct {
	oracle Oracle
	lru    *lru.Cache[pair, result]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache wraps oracle with an LRU of the given capacity.
func NewCache(oracle Oracle, size int) (*Cache, error) {
	l, err := lru.New[pair, result](size)
	if err != nil {
		return nil, fmt.Errorf("create distance lru: %w", err)
	}
	return &Cache{oracle: oracle, lru: l}, nil
}

// NewGridCache is NewCache over a fresh Grid for walls.
func NewGridCache(walls *game.Walls, size int) (*Cache, error) {
	return NewCache(NewGrid(walls), size)
}

// Distance returns the cached answer for (start, end), computing and storing
// it on a miss.
func (c *Cache) Distance(start, end game.Cell) (int, bool) {
	key := pair{start: start, end: end}
	if r, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return r.dist, r.ok
	}
	c.misses.Add(1)
	d, ok := c.oracle.Distance(start, end)
	c.lru.Add(key, result{dist: d, ok: ok})
	return d, ok
}

func (c *Cache) Len() int { return c.lru.Len() }

func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.lru.Len(),
	}
}

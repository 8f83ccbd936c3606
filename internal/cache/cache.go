// Package cache memoizes model-existence lookups per language pair.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/valpere/pivotran/internal/translator"
)

// DefaultSize bounds the number of pairs remembered at once.
const DefaultSize = 100

// ExistenceCache maps a language pair to whether a direct model exists for
// it. Entries are evicted least-recently-used first and never expire
// otherwise. Safe for concurrent use.
type ExistenceCache struct {
	entries *lru.Cache[translator.Pair, bool]
}

func New(size int) (*ExistenceCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	entries, err := lru.New[translator.Pair, bool](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	return &ExistenceCache{entries: entries}, nil
}

// Get returns the cached answer for pair and marks it recently used.
func (c *ExistenceCache) Get(pair translator.Pair) (exists, ok bool) {
	return c.entries.Get(pair)
}

// Add records the answer for pair and reports whether an older entry was
// evicted to make room.
func (c *ExistenceCache) Add(pair translator.Pair, exists bool) (evicted bool) {
	return c.entries.Add(pair, exists)
}

// Contains reports presence without touching recency.
func (c *ExistenceCache) Contains(pair translator.Pair) bool {
	return c.entries.Contains(pair)
}

func (c *ExistenceCache) Len() int {
	return c.entries.Len()
}

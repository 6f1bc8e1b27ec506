package targets

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of file results kept when no size is given.
const DefaultCacheSize = 1024

type cacheKey struct {
	path        string
	fingerprint uint64
}

type cacheEntry struct {
	table       *Table
	diagnostics []Diagnostic
}

// Cache keeps per-file scan results keyed by path and content fingerprint,
// so unchanged files are not rescanned. Cached tables are shared and must
// not be modified by callers.
type Cache struct {
	entries *lru.Cache[cacheKey, cacheEntry]
}

// NewCache creates a cache holding up to size file results.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create targets cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) get(path string, fingerprint uint64) (cacheEntry, bool) {
	return c.entries.Get(cacheKey{path: path, fingerprint: fingerprint})
}

func (c *Cache) add(path string, fingerprint uint64, table *Table, diagnostics []Diagnostic) {
	c.entries.Add(cacheKey{path: path, fingerprint: fingerprint}, cacheEntry{table: table, diagnostics: diagnostics})
}

// Len returns the number of cached file results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.entries.Purge()
}

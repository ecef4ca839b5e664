package core

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"morphcore/internal/catalog"
)

// DefaultCatalogCacheSize bounds the number of compiled catalogs kept in memory.
const DefaultCatalogCacheSize = 16

// catalogCache holds compiled catalogs keyed by slug, revision and creation
// time, so a species update invalidates its entry without explicit eviction.
// Revisions restart after a delete; evict drops a slug's entries then.
type catalogCache struct {
	entries *lru.Cache[string, *catalog.Catalog]
}

func newCatalogCache(size int) *catalogCache {
	if size <= 0 {
		size = DefaultCatalogCacheSize
	}
	// lru.New only fails for non-positive sizes.
	entries, _ := lru.New[string, *catalog.Catalog](size)
	return &catalogCache{entries: entries}
}

func catalogCacheKey(sp Species) string {
	return sp.Slug + "@" + sp.Version()
}

func (c *catalogCache) get(sp Species) (*catalog.Catalog, bool) {
	return c.entries.Get(catalogCacheKey(sp))
}

func (c *catalogCache) add(sp Species, cat *catalog.Catalog) {
	c.entries.Add(catalogCacheKey(sp), cat)
}

// evict removes every compiled revision of slug.
func (c *catalogCache) evict(slug string) {
	prefix := slug + "@"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}

func (c *catalogCache) len() int {
	return c.entries.Len()
}

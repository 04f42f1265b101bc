// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache.go provides the L1 in-memory cache of rendered published pages.
// Pages are keyed by website ID and last-modified time, so every persisted
// edit produces a cache miss without explicit invalidation.
package engine

import (
	"log/slog"
	"sync"
)

// cacheKey identifies one rendered version of a website.
type cacheKey struct {
	id      string
	version int64 // last_modified in unix nanoseconds
}

// pageCache is a concurrency-safe cache of rendered pages. Only the newest
// version of each website is kept.
type pageCache struct {
	mu      sync.RWMutex
	entries map[cacheKey][]byte
}

func newPageCache() *pageCache {
	return &pageCache{entries: make(map[cacheKey][]byte)}
}

// get returns the cached page or nil on miss.
func (c *pageCache) get(id string, version int64) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[cacheKey{id: id, version: version}]
}

// put stores a page, dropping older versions of the same website.
func (c *pageCache) put(id string, version int64, page []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.id == id {
			delete(c.entries, k)
		}
	}
	c.entries[cacheKey{id: id, version: version}] = page
	slog.Debug("page cached", "website_id", id, "version", version, "size", len(c.entries))
}

// invalidate removes every cached version of a website.
func (c *pageCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.id == id {
			delete(c.entries, k)
		}
	}
	slog.Debug("page cache invalidated", "website_id", id)
}

// invalidateAll clears the cache.
func (c *pageCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey][]byte)
	slog.Debug("page cache fully cleared")
}

func (c *pageCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

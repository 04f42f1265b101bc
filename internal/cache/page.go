// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go is the L2 cache of published pages, shared by every server
// instance. Entries are keyed by slug and dropped whenever the website is
// published, unpublished, edited or deleted.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pageKeyPrefix = "page:"

	// DefaultPageTTL bounds how long a page can outlive a missed
	// invalidation.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache stores rendered published pages in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a page cache. A zero ttl selects DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// PageKey returns the Valkey key of a website's published page.
func PageKey(slug string) string {
	return pageKeyPrefix + slug
}

// Get returns the cached page for slug. Errors count as a miss.
func (pc *PageCache) Get(ctx context.Context, slug string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, PageKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "slug", slug, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "slug", slug)
	return val, true
}

// Set stores a rendered page.
func (pc *PageCache) Set(ctx context.Context, slug string, html []byte) {
	if err := pc.client.Set(ctx, PageKey(slug), html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "slug", slug, "error", err)
	}
}

// Invalidate removes the cached page of slug.
func (pc *PageCache) Invalidate(ctx context.Context, slug string) {
	if err := pc.client.Del(ctx, PageKey(slug)).Err(); err != nil {
		slog.Warn("page cache invalidate error", "slug", slug, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "slug", slug)
}

// InvalidateAll removes every cached page, e.g. after a renderer upgrade.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
}

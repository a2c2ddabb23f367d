// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// listing.go caches rendered JSON pages of post listings. Any write that
// can change a listing clears every cached page, since a single post can
// appear on many of them. Keys carry a generation number that every
// invalidation bumps, so a page rendered before a write and stored after
// it is never served.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// listingKeyPrefix is the Valkey key prefix for cached listings.
	listingKeyPrefix = "listing:"

	// listingGenKey holds the current generation. It sits outside the
	// listing prefix so InvalidateAll does not scan it away.
	listingGenKey = "listing_generation"

	// DefaultListingTTL is how long a cached listing page lives.
	DefaultListingTTL = time.Minute
)

// ListingCache manages cached listing responses in Valkey.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get returns the cached body for key. Errors count as a miss.
func (lc *ListingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := lc.client.Get(ctx, listingKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("listing cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("listing cache hit", "key", key)
	return val, true
}

// Set stores body under key with the configured TTL.
func (lc *ListingCache) Set(ctx context.Context, key string, body []byte) {
	if err := lc.client.Set(ctx, listingKeyPrefix+key, body, lc.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "key", key, "error", err)
	}
}

// Generation returns the current cache generation. Read it before
// loading the data a page is rendered from. Errors read as generation 0.
func (lc *ListingCache) Generation(ctx context.Context) int64 {
	gen, err := lc.client.Get(ctx, listingGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("listing cache generation error", "error", err)
	}
	return gen
}

// InvalidateAll bumps the generation and removes every cached listing by
// scanning for the prefix.
func (lc *ListingCache) InvalidateAll(ctx context.Context) {
	if err := lc.client.Incr(ctx, listingGenKey).Err(); err != nil {
		slog.Warn("listing cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, next, err := lc.client.Scan(ctx, cursor, listingKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("listing cache cleared", "deleted", deleted)
	}
}

// ListingKey builds the cache key for one page of a listing in the given
// generation. The query string must already be in canonical form.
func ListingKey(name string, generation int64, rawQuery string) string {
	key := fmt.Sprintf("%d:%s", generation, name)
	if rawQuery == "" {
		return key
	}
	return key + "?" + rawQuery
}

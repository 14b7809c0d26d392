package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nutrihub/backend/internal/domain"
)

// cacheRow is one cached food with its expiry.
type cacheRow struct {
	food      domain.NormalizedFood
	expiresAt time.Time
}

// MemoryCache is a thread-safe in-memory CacheStore with TTL support.
// Expiry is lazy: Get skips stale rows, and a janitor goroutine purges
// them every 10 minutes.
type MemoryCache struct {
	mutex   sync.RWMutex
	rows    map[string]cacheRow
	queries map[string][]string // normalized query -> ordered row keys
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		rows:    make(map[string]cacheRow),
		queries: make(map[string][]string),
	}

	go c.cleanupExpired()

	return c
}

// Get returns the cached result for a query, honoring limit and offset.
// Rows whose expiry has passed are treated as absent. Returns
// domain.ErrCacheMiss when nothing fresh matches.
func (c *MemoryCache) Get(ctx context.Context, query string, limit, offset int) (*domain.SearchResult, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	keys, exists := c.queries[normalizeQuery(query)]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	now := time.Now()
	fresh := make([]domain.NormalizedFood, 0, len(keys))
	for _, key := range keys {
		row, ok := c.rows[key]
		if !ok || now.After(row.expiresAt) {
			continue
		}
		fresh = append(fresh, row.food)
	}

	if len(fresh) == 0 {
		return nil, domain.ErrCacheMiss
	}

	total := len(fresh)
	if offset >= total {
		return nil, domain.ErrCacheMiss
	}
	fresh = fresh[offset:]

	hasMore := false
	if limit > 0 && len(fresh) > limit {
		fresh = fresh[:limit]
		hasMore = true
	}

	return &domain.SearchResult{
		Foods:        fresh,
		Source:       domain.SourceCache,
		TotalResults: total,
		HasMore:      hasMore,
	}, nil
}

// Put upserts every food of the result under its (provider,
// external_id) identity and points the normalized query at those rows.
// A later write for the same identity replaces data and TTL no matter
// which query produced it.
func (c *MemoryCache) Put(ctx context.Context, query string, result *domain.SearchResult, ttl time.Duration) error {
	if result == nil || len(result.Foods) == 0 {
		return nil
	}

	// ttl <= 0 is honored literally: the rows are born expired and a
	// Get will never return them.
	expiresAt := time.Now().Add(ttl)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	keys := make([]string, 0, len(result.Foods))
	for _, f := range result.Foods {
		key := rowKey(f.Source, f.ExternalID)
		c.rows[key] = cacheRow{food: f, expiresAt: expiresAt}
		keys = append(keys, key)
	}
	c.queries[normalizeQuery(query)] = keys

	return nil
}

// Clear removes every cached row and query index entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.rows = make(map[string]cacheRow)
	c.queries = make(map[string][]string)
	return nil
}

// Size returns the current number of cached rows (for debugging/monitoring).
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.rows)
}

// cleanupExpired removes expired rows periodically.
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, row := range c.rows {
			if now.After(row.expiresAt) {
				delete(c.rows, key)
			}
		}
		c.mutex.Unlock()
	}
}

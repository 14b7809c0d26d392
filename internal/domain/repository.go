package domain

import (
	"context"
	"time"
)

// Provider is implemented by each external nutrition database adapter.
// Adapters are stateless aside from injected credentials and perform
// exactly one outbound search call per invocation (auth token retrieval
// excepted). They never write to the cache or usage stores.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error)
}

// CacheStore maps a normalized query to a previously fetched, still
// valid result set. Rows are upserted by (provider, external_id) so the
// same item surfaced by different queries occupies one row; lookups go
// through the lowercased, trimmed query string. Expired rows are
// treated as misses, not necessarily purged immediately.
type CacheStore interface {
	// Get returns ErrCacheMiss when nothing fresh matches and a
	// ErrCacheUnavailable-wrapped error when the store itself fails.
	Get(ctx context.Context, query string, limit, offset int) (*SearchResult, error)
	Put(ctx context.Context, query string, result *SearchResult, ttl time.Duration) error
	// Clear drops every cached entry (admin "clear cache" action).
	Clear(ctx context.Context) error
}

// UsageStore persists append-only provider invocation records and
// aggregates them on read.
type UsageStore interface {
	Record(ctx context.Context, rec UsageRecord) error
	Stats(ctx context.Context, windowDays int) ([]APIUsageStats, error)
}

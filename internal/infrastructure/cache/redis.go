package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nutrihub/backend/internal/domain"
)

const (
	foodKeyPrefix  = "nutrihub:food:"
	queryKeyPrefix = "nutrihub:query:"
)

// RedisCache is a CacheStore backed by Redis. Each food lives in its
// own key carrying the TTL, so identity-level upserts and lazy expiry
// fall out of Redis semantics; a query index key maps the normalized
// query to its row keys.
type RedisCache struct {
	client *redis.Client
}

// RedisConfig holds connection settings for the cache backend.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisCache creates a Redis-backed cache store.
func NewRedisCache(cfg RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisCache{client: client}
}

// NewRedisCacheWithClient wraps an existing client (used by tests).
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Ping verifies connectivity at startup.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Get implements domain.CacheStore.
func (c *RedisCache) Get(ctx context.Context, query string, limit, offset int) (*domain.SearchResult, error) {
	indexKey := queryKeyPrefix + normalizeQuery(query)

	raw, err := c.client.Get(ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var rowKeys []string
	if err := json.Unmarshal([]byte(raw), &rowKeys); err != nil {
		// A corrupt index entry is just a miss.
		return nil, domain.ErrCacheMiss
	}
	if len(rowKeys) == 0 {
		return nil, domain.ErrCacheMiss
	}

	values, err := c.client.MGet(ctx, rowKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	fresh := make([]domain.NormalizedFood, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // expired or evicted row
		}
		var f domain.NormalizedFood
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			continue
		}
		fresh = append(fresh, f)
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

// Put implements domain.CacheStore.
func (c *RedisCache) Put(ctx context.Context, query string, result *domain.SearchResult, ttl time.Duration) error {
	if result == nil || len(result.Foods) == 0 {
		return nil
	}
	if ttl <= 0 {
		// A non-positive TTL means the rows would be born expired;
		// writing nothing is equivalent and cheaper.
		return nil
	}

	pipe := c.client.TxPipeline()

	rowKeys := make([]string, 0, len(result.Foods))
	for _, f := range result.Foods {
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("%w: marshal food: %v", domain.ErrCacheUnavailable, err)
		}
		key := foodKeyPrefix + rowKey(f.Source, f.ExternalID)
		pipe.Set(ctx, key, data, ttl)
		rowKeys = append(rowKeys, key)
	}

	index, err := json.Marshal(rowKeys)
	if err != nil {
		return fmt.Errorf("%w: marshal index: %v", domain.ErrCacheUnavailable, err)
	}
	pipe.Set(ctx, queryKeyPrefix+normalizeQuery(query), index, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Clear implements domain.CacheStore by deleting every cache key.
func (c *RedisCache) Clear(ctx context.Context) error {
	for _, prefix := range []string{foodKeyPrefix, queryKeyPrefix} {
		iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
		}
	}
	return nil
}

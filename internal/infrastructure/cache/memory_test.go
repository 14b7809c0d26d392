package cache

import (
	"context"
	"testing"
	"time"

	"github.com/nutrihub/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFood(source, externalID, name string) domain.NormalizedFood {
	return domain.NormalizedFood{
		ID:           source + "_" + externalID,
		Name:         name,
		ServingSizes: []domain.ServingSize{{Name: "100g", Grams: 100}},
		Nutrients:    domain.Nutrients{Calories: 52},
		Source:       source,
		ExternalID:   externalID,
	}
}

func testResult(foods ...domain.NormalizedFood) *domain.SearchResult {
	return &domain.SearchResult{Foods: foods, Source: foods[0].Source, TotalResults: len(foods)}
}

func TestMemoryCache_PutAndGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	err := c.Put(ctx, "apple", testResult(testFood("usda", "1", "Apple")), time.Minute)
	require.NoError(t, err)

	got, err := c.Get(ctx, "apple", 20, 0)
	require.NoError(t, err)
	require.Len(t, got.Foods, 1)
	assert.Equal(t, "Apple", got.Foods[0].Name)
	assert.Equal(t, domain.SourceCache, got.Source)
	assert.Equal(t, 1, got.TotalResults)
}

func TestMemoryCache_QueryNormalization(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "  Greek   Yogurt ", testResult(testFood("usda", "2", "Greek Yogurt")), time.Minute))

	got, err := c.Get(ctx, "greek yogurt", 20, 0)
	require.NoError(t, err)
	assert.Len(t, got.Foods, 1)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache()

	_, err := c.Get(context.Background(), "nothing here", 20, 0)

	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_ZeroTTLNeverReturned(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "apple", testResult(testFood("usda", "1", "Apple")), 0))

	time.Sleep(time.Millisecond)
	_, err := c.Get(ctx, "apple", 20, 0)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_ExpiredEntryIsAMiss(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "apple", testResult(testFood("usda", "1", "Apple")), time.Millisecond))

	time.Sleep(10 * time.Millisecond)
	_, err := c.Get(ctx, "apple", 20, 0)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_UpsertDedupAcrossQueries(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	first := testFood("usda", "1", "Apple")
	require.NoError(t, c.Put(ctx, "apple", testResult(first), time.Minute))

	// Same identity surfaced by a different query with fresher data.
	updated := testFood("usda", "1", "Apple, raw")
	require.NoError(t, c.Put(ctx, "raw apple", testResult(updated), time.Minute))

	assert.Equal(t, 1, c.Size())

	// Both queries resolve, and both see the most recent data.
	got, err := c.Get(ctx, "apple", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, "Apple, raw", got.Foods[0].Name)

	got, err = c.Get(ctx, "raw apple", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, "Apple, raw", got.Foods[0].Name)
}

func TestMemoryCache_LimitOffset(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	foods := []domain.NormalizedFood{
		testFood("usda", "1", "Apple"),
		testFood("usda", "2", "Apple Pie"),
		testFood("usda", "3", "Apple Juice"),
	}
	require.NoError(t, c.Put(ctx, "apple", testResult(foods...), time.Minute))

	got, err := c.Get(ctx, "apple", 2, 0)
	require.NoError(t, err)
	assert.Len(t, got.Foods, 2)
	assert.True(t, got.HasMore)
	assert.Equal(t, 3, got.TotalResults)

	got, err = c.Get(ctx, "apple", 2, 2)
	require.NoError(t, err)
	assert.Len(t, got.Foods, 1)
	assert.Equal(t, "Apple Juice", got.Foods[0].Name)
	assert.False(t, got.HasMore)

	_, err = c.Get(ctx, "apple", 2, 10)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "apple", testResult(testFood("usda", "1", "Apple")), time.Minute))
	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, 0, c.Size())
	_, err := c.Get(ctx, "apple", 20, 0)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_EmptyResultNotStored(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "apple", &domain.SearchResult{Foods: []domain.NormalizedFood{}}, time.Minute))

	assert.Equal(t, 0, c.Size())
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apple", "apple"},
		{"  Greek   Yogurt  ", "greek yogurt"},
		{"BANANA", "banana"},
		{"a\tb", "a b"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeQuery(tt.in))
	}
}

package usecase

import (
	"context"
	"log"
	"time"

	"github.com/nutrihub/backend/internal/domain"
	"github.com/nutrihub/backend/internal/metrics"
)

// UsageTracker records provider invocations. Recording is
// fire-and-forget: a failing usage store never affects the search
// result returned to the caller.
type UsageTracker struct {
	store domain.UsageStore
}

// NewUsageTracker creates a tracker over the given store.
func NewUsageTracker(store domain.UsageStore) *UsageTracker {
	return &UsageTracker{store: store}
}

// RecordSuccess logs a successful provider call.
func (t *UsageTracker) RecordSuccess(ctx context.Context, provider, query string, count int) {
	metrics.ProviderRequests.WithLabelValues(provider, "success").Inc()

	err := t.store.Record(ctx, domain.UsageRecord{
		Provider:    provider,
		Query:       query,
		ResultCount: count,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[usage] failed to record success for %s: %v", provider, err)
	}
}

// RecordError logs a failed provider call.
func (t *UsageTracker) RecordError(ctx context.Context, provider, query string, callErr error) {
	metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()

	msg := ""
	if callErr != nil {
		msg = callErr.Error()
	}

	err := t.store.Record(ctx, domain.UsageRecord{
		Provider:     provider,
		Query:        query,
		ErrorMessage: msg,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[usage] failed to record error for %s: %v", provider, err)
	}
}

// Stats returns per-provider aggregates for the window.
func (t *UsageTracker) Stats(ctx context.Context, windowDays int) ([]domain.APIUsageStats, error) {
	return t.store.Stats(ctx, windowDays)
}

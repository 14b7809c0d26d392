// Package usage provides append-only stores for provider invocation
// records and computes per-provider aggregates on read.
package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutrihub/backend/internal/domain"
)

// MemoryStore is an in-memory, append-only UsageStore. Concurrent
// writers never conflict; readers aggregate under a read lock.
type MemoryStore struct {
	mutex   sync.RWMutex
	records []domain.UsageRecord
}

// NewMemoryStore creates an in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends one usage record. Records are never mutated afterward.
func (s *MemoryStore) Record(ctx context.Context, rec domain.UsageRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.mutex.Lock()
	s.records = append(s.records, rec)
	s.mutex.Unlock()
	return nil
}

// Stats aggregates records whose timestamp falls inside the window.
// Day and month boundaries are UTC calendar boundaries.
func (s *MemoryStore) Stats(ctx context.Context, windowDays int) ([]domain.APIUsageStats, error) {
	if windowDays <= 0 {
		windowDays = 30
	}

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -windowDays)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	byProvider := make(map[string]*domain.APIUsageStats)

	s.mutex.RLock()
	for _, rec := range s.records {
		ts := rec.Timestamp.UTC()
		if ts.Before(windowStart) {
			continue
		}

		st, ok := byProvider[rec.Provider]
		if !ok {
			st = &domain.APIUsageStats{API: rec.Provider}
			byProvider[rec.Provider] = st
		}
		if !ts.Before(dayStart) {
			st.RequestsToday++
		}
		if !ts.Before(monthStart) {
			st.RequestsThisMonth++
		}
		if ts.After(st.LastRequest) {
			st.LastRequest = ts
		}
	}
	s.mutex.RUnlock()

	stats := make([]domain.APIUsageStats, 0, len(byProvider))
	for _, st := range byProvider {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].API < stats[j].API })

	return stats, nil
}

// Len returns the number of stored records (for tests/monitoring).
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.records)
}

// Records returns a copy of all stored records (for tests).
func (s *MemoryStore) Records() []domain.UsageRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]domain.UsageRecord, len(s.records))
	copy(out, s.records)
	return out
}

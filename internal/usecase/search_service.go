package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nutrihub/backend/internal/domain"
	"github.com/nutrihub/backend/internal/metrics"
)

// errCircuitOpen marks a provider skipped because its breaker is open.
// Skips are silent: no usage record is written for a call never made.
var errCircuitOpen = errors.New("circuit breaker open")

// SearchServiceConfig holds configuration for the search service.
type SearchServiceConfig struct {
	CacheTTL       time.Duration
	CallTimeout    time.Duration
	BreakerEnabled bool
}

// SearchService is the orchestration engine: it resolves a food query
// against the cache first and falls back across providers in order
// until one yields a non-empty result.
//
// Providers are tried sequentially, not in parallel; the goal is first
// success with minimal spend against rate-limited third parties.
type SearchService struct {
	cache       domain.CacheStore
	tracker     *UsageTracker
	registry    *ProviderRegistry
	cacheTTL    time.Duration
	callTimeout time.Duration
	breakers    map[string]*gobreaker.CircuitBreaker
}

// NewSearchService creates a search service with dependencies.
func NewSearchService(
	cache domain.CacheStore,
	tracker *UsageTracker,
	registry *ProviderRegistry,
	config SearchServiceConfig,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	callTimeout := config.CallTimeout
	if callTimeout == 0 {
		callTimeout = 5 * time.Second
	}

	s := &SearchService{
		cache:       cache,
		tracker:     tracker,
		registry:    registry,
		cacheTTL:    cacheTTL,
		callTimeout: callTimeout,
	}

	if config.BreakerEnabled {
		s.breakers = make(map[string]*gobreaker.CircuitBreaker)
		for _, name := range registry.Names() {
			s.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        name,
				MaxRequests: 3,
				Interval:    60 * time.Second,
				Timeout:     30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					if counts.Requests < 5 {
						return false
					}
					return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
				},
			})
		}
	}

	return s
}

// Search resolves a query to a normalized result set.
// Flow: check cache -> order providers -> try each in sequence ->
// cache and record the first non-empty result.
//
// Search never fails because providers failed: exhausting every
// provider yields an empty result with source "none". Only invalid
// input is surfaced as an error.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || opts.Limit < 0 || opts.Offset < 0 {
		return nil, domain.ErrInvalidRequest
	}
	if opts.Limit == 0 {
		opts.Limit = 20
	}

	if cached := s.getFromCache(ctx, query, opts); cached != nil {
		return cached, nil
	}

	for _, name := range s.orderProviders(opts.PreferredAPIs) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		provider, ok := s.registry.Provider(name)
		if !ok {
			continue
		}

		result, err := s.invoke(ctx, provider, query, opts)
		if err != nil {
			if errors.Is(err, errCircuitOpen) {
				log.Printf("[search] skipping %s: circuit open", name)
				continue
			}
			// The caller walked away; stop without penalizing the
			// remaining providers.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[search] provider %s failed for %q: %v", name, query, err)
			s.tracker.RecordError(ctx, name, query, err)
			continue
		}

		if len(result.Foods) == 0 {
			// A provider legitimately having no match is a soft
			// failure: advance without an error record.
			metrics.ProviderRequests.WithLabelValues(name, "empty").Inc()
			continue
		}

		result.Source = name
		if err := s.cache.Put(ctx, query, result, s.cacheTTL); err != nil {
			log.Printf("[search] cache write failed for %q: %v", query, err)
		}
		s.tracker.RecordSuccess(ctx, name, query, len(result.Foods))

		return result, nil
	}

	return &domain.SearchResult{
		Foods:  []domain.NormalizedFood{},
		Source: domain.SourceNone,
	}, nil
}

// ClearCache drops every cached search result (admin action).
func (s *SearchService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// getFromCache returns a cached result or nil. Cache failures degrade
// to a miss and never abort the search.
func (s *SearchService) getFromCache(ctx context.Context, query string, opts domain.SearchOptions) *domain.SearchResult {
	result, err := s.cache.Get(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[search] cache read failed for %q: %v", query, err)
		}
		metrics.CacheMisses.Inc()
		return nil
	}
	if len(result.Foods) == 0 {
		metrics.CacheMisses.Inc()
		return nil
	}

	metrics.CacheHits.Inc()
	result.Source = domain.SourceCache
	return result
}

// orderProviders builds the execution order: caller-preferred providers
// first (filtered to enabled ones), then the remaining enabled
// providers in default reliability order.
func (s *SearchService) orderProviders(preferred []string) []string {
	order := make([]string, 0, len(preferred)+4)
	seen := make(map[string]bool)

	for _, name := range preferred {
		if s.registry.IsEnabled(name) && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	for _, name := range s.registry.EnabledProviders() {
		if !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	return order
}

// invoke calls one provider with the per-call timeout, optionally
// through its circuit breaker.
func (s *SearchService) invoke(ctx context.Context, provider domain.Provider, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.ProviderLatency.WithLabelValues(provider.Name()).Observe(time.Since(start).Seconds())
	}()

	cb := s.breakers[provider.Name()]
	if cb == nil {
		return provider.Search(callCtx, query, opts)
	}

	res, err := cb.Execute(func() (interface{}, error) {
		return provider.Search(callCtx, query, opts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errCircuitOpen
		}
		return nil, err
	}
	return res.(*domain.SearchResult), nil
}

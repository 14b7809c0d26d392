package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingCredentials is returned when a provider is enabled but has
	// no credentials configured; the orchestrator treats it as a
	// skip-this-provider signal
	ErrMissingCredentials = errors.New("provider credentials not configured")

	// ErrProviderFailure is returned when a provider request fails
	// (timeout, connection failure, non-2xx response)
	ErrProviderFailure = errors.New("provider request failed")

	// ErrMalformedResponse is returned when a provider response cannot be
	// decoded at all; treated the same as ErrProviderFailure for fallback
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrRateLimited is returned when a provider signals rate limiting
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache store is unreachable;
	// never propagated past the orchestrator
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

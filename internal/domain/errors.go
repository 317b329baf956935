package domain

import "errors"

var (
	// ErrCacheMiss signals the published stream set has expired or was
	// never written.
	ErrCacheMiss = errors.New("stream cache miss")
	// ErrSnapshotUnavailable signals the upstream catalog fetch failed.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	// ErrRefreshInFlight signals an overlapping refresh cycle was refused.
	ErrRefreshInFlight = errors.New("refresh already in flight")
	// ErrInvalidNamespace signals an unknown tag namespace.
	ErrInvalidNamespace = errors.New("invalid tag namespace")
	// ErrInvalidResponse signals a provider response that fails to bind
	// to its declared shape.
	ErrInvalidResponse = errors.New("invalid provider response")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEnrichmentProviderError signals a tag-enrichment provider failure.
	ErrEnrichmentProviderError = errors.New("enrichment provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrSubscriberNotFound signals a missing subscriber.
	ErrSubscriberNotFound = errors.New("subscriber not found")
	// ErrValidation marks rejected caller input. Errors wrapping it carry
	// a message safe to return to the client.
	ErrValidation = errors.New("validation failed")
)

package refresh

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// CatalogFetcher is the upstream snapshot collaborator.
type CatalogFetcher interface {
	FetchLive(ctx context.Context) ([]domain.LiveStream, error)
}

// Enricher produces AI tags for the changed subset, keyed by channel ID.
type Enricher interface {
	Enrich(ctx context.Context, streams []domain.LiveStream) map[string][]string
}

// Cache is the published derived-cache pair (enriched blob + snapshot).
type Cache interface {
	SaveStreams(ctx context.Context, streams []domain.EnrichedStream) error
	GetStreams(ctx context.Context) ([]domain.EnrichedStream, error)
	SaveSignatures(ctx context.Context, sigs map[string]string) error
	GetSignatures(ctx context.Context) (map[string]string, error)
}

// EmbeddingSyncer keeps the vector store in step with the snapshot.
type EmbeddingSyncer interface {
	Sync(ctx context.Context, ended []string, changed []domain.LiveStream) error
}

// LedgerReconciler maintains the durable tag vocabulary.
type LedgerReconciler interface {
	ReconcileAll(ctx context.Context, streams []domain.LiveStream) error
}

// AutocompleteRebuilder re-derives the prefix indexes from the ledger.
type AutocompleteRebuilder interface {
	RebuildAll(ctx context.Context) error
}

// Notifier fans changed-stream notifications out to subscribers.
type Notifier interface {
	Notify(ctx context.Context, changed map[string]struct{}, streams []domain.EnrichedStream)
}

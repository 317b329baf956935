package autocomplete

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// ledgerStore reads the durable vocabulary (ISP).
type ledgerStore interface {
	ListActive(ctx context.Context, ns domain.Namespace) ([]domain.Tag, error)
}

// index is the prefix-searchable per-namespace structure.
type index interface {
	Rebuild(ctx context.Context, ns domain.Namespace, counts map[string]int64) error
	Search(ctx context.Context, ns domain.Namespace, prefix string, limit int) ([]domain.Tag, error)
}

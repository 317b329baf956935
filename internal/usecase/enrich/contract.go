package enrich

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// Enricher is the external tag-enrichment collaborator.
type Enricher interface {
	EnrichBatch(ctx context.Context, inputs []domain.EnrichmentInput) ([]domain.TagResult, error)
}

package recommend

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// cache reads the published enriched catalog (ISP).
type cache interface {
	GetStreams(ctx context.Context) ([]domain.EnrichedStream, error)
}

// embedder turns a free-text query into a vector.
type embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// vectorIndex answers nearest-neighbor queries over stream embeddings.
type vectorIndex interface {
	SearchNearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error)
}

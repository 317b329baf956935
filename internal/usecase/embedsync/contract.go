package embedsync

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// Embedder is the external embedding collaborator.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Repository is the vector store for stream embeddings.
type Repository interface {
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error
	Delete(ctx context.Context, channelIDs []string) error
}

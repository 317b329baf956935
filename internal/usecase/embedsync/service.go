package embedsync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/streamscout/internal/domain"
	"github.com/kailas-cloud/streamscout/internal/logger"
)

// Defaults for chunked embedding sync.
const (
	DefaultChunkSize    = 100
	DefaultParallelism  = 10
	DefaultChunkTimeout = 30 * time.Second
)

// Service keeps the vector store in step with the snapshot: rows for
// ended and changed channels are dropped, then changed channels are
// re-embedded in provider-sized chunks dispatched in bounded parallel.
type Service struct {
	embedder     Embedder
	repo         Repository
	chunkSize    int
	parallelism  int
	chunkTimeout time.Duration
	now          func() time.Time
}

// New creates an embedding sync service.
func New(embedder Embedder, repo Repository) *Service {
	return &Service{
		embedder:     embedder,
		repo:         repo,
		chunkSize:    DefaultChunkSize,
		parallelism:  DefaultParallelism,
		chunkTimeout: DefaultChunkTimeout,
		now:          time.Now,
	}
}

// WithChunking configures chunk size, parallelism, and per-chunk timeout.
func (s *Service) WithChunking(chunkSize, parallelism int, chunkTimeout time.Duration) *Service {
	if chunkSize > 0 {
		s.chunkSize = chunkSize
	}
	if parallelism > 0 {
		s.parallelism = parallelism
	}
	if chunkTimeout > 0 {
		s.chunkTimeout = chunkTimeout
	}
	return s
}

// Sync removes stale rows and re-embeds the changed streams.
// The delete must succeed (stale vectors would poison recommendations);
// a failed embed chunk is logged and skipped, retried next cycle.
func (s *Service) Sync(ctx context.Context, ended []string, changed []domain.LiveStream) error {
	log := logger.FromContext(ctx)

	stale := make([]string, 0, len(ended)+len(changed))
	stale = append(stale, ended...)
	for _, stream := range changed {
		stale = append(stale, stream.ChannelID)
	}
	if err := s.repo.Delete(ctx, stale); err != nil {
		return fmt.Errorf("delete stale embeddings: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(s.parallelism)

	for start := 0; start < len(changed); start += s.chunkSize {
		end := min(start+s.chunkSize, len(changed))
		chunk := changed[start:end]

		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.chunkTimeout)
			defer cancel()

			if err := s.syncChunk(cctx, chunk); err != nil {
				log.Warn("embedding chunk failed",
					zap.Int("offset", start),
					zap.Int("size", len(chunk)),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

func (s *Service) syncChunk(ctx context.Context, chunk []domain.LiveStream) error {
	texts := make([]string, len(chunk))
	for i, stream := range chunk {
		texts[i] = domain.EmbeddingText(stream)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunk) {
		return fmt.Errorf("got %d vectors for %d streams", len(vectors), len(chunk))
	}

	updatedAt := s.now().Unix()
	records := make([]domain.EmbeddingRecord, len(chunk))
	for i, stream := range chunk {
		records[i] = domain.EmbeddingRecord{
			ChannelID: stream.ChannelID,
			Text:      texts[i],
			Vector:    vectors[i],
			UpdatedAt: updatedAt,
		}
	}
	return s.repo.Upsert(ctx, records)
}

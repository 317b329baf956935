package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/streamscout/internal/domain"
	"github.com/kailas-cloud/streamscout/internal/logger"
	"github.com/kailas-cloud/streamscout/internal/metrics"
)

// Defaults for chunked enrichment.
const (
	DefaultChunkSize    = 20
	DefaultParallelism  = 10
	DefaultChunkTimeout = 30 * time.Second
)

// Service fans changed streams out to the enrichment provider in bounded
// parallel chunks. A failing chunk contributes nothing; its streams are
// retried naturally on the next cycle.
type Service struct {
	enricher     Enricher
	chunkSize    int
	parallelism  int
	chunkTimeout time.Duration
}

// New creates an enrichment service.
func New(enricher Enricher) *Service {
	return &Service{
		enricher:     enricher,
		chunkSize:    DefaultChunkSize,
		parallelism:  DefaultParallelism,
		chunkTimeout: DefaultChunkTimeout,
	}
}

// WithChunking configures chunk size and parallelism.
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

// Enrich returns AI tags keyed by channel ID. Channels whose chunk failed
// are absent from the result.
func (s *Service) Enrich(ctx context.Context, streams []domain.LiveStream) map[string][]string {
	if len(streams) == 0 {
		return map[string][]string{}
	}

	log := logger.FromContext(ctx)
	chunks := chunk(streams, s.chunkSize)
	results := make([][]domain.TagResult, len(chunks))

	var g errgroup.Group
	g.SetLimit(s.parallelism)

	for i, c := range chunks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.chunkTimeout)
			defer cancel()

			inputs := make([]domain.EnrichmentInput, len(c))
			for j, stream := range c {
				inputs[j] = domain.EnrichmentInputFrom(stream)
			}

			res, err := s.enricher.EnrichBatch(cctx, inputs)
			if err != nil {
				metrics.EnrichmentChunksTotal.WithLabelValues("error").Inc()
				log.Warn("enrichment chunk failed",
					zap.Int("chunk", i),
					zap.Int("size", len(c)),
					zap.Error(err),
				)
				return nil
			}

			metrics.EnrichmentChunksTotal.WithLabelValues("ok").Inc()
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	merged := make(map[string][]string)
	for _, res := range results {
		for _, r := range res {
			merged[r.ChannelID] = r.AITags
		}
	}
	return merged
}

// chunk partitions streams into non-overlapping sub-lists of at most size.
func chunk(streams []domain.LiveStream, size int) [][]domain.LiveStream {
	var chunks [][]domain.LiveStream
	for start := 0; start < len(streams); start += size {
		end := min(start+size, len(streams))
		chunks = append(chunks, streams[start:end])
	}
	return chunks
}

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// Lexical match weights: a title hit outranks a declared-tag hit, which
// outranks a derived-tag hit.
const (
	titleWeight    = 10
	declaredWeight = 5
	derivedWeight  = 2
)

// DefaultLimit is the result count when the caller passes none.
const DefaultLimit = 5

// DefaultKNNLimit is how many neighbors to pull before joining against
// the live cache.
const DefaultKNNLimit = 20

// Scored is one recommendation with its ranking score. For lexical
// queries the score is the weighted match sum; for semantic queries it
// is the cosine similarity in [0,1].
type Scored struct {
	Stream domain.EnrichedStream `json:"stream"`
	Score  float64               `json:"score"`
}

// Service answers both recommendation strategies from the published cache.
type Service struct {
	cache    cache
	embedder embedder
	index    vectorIndex
	limit    int
	knnLimit int
	kick     func()
}

// New creates a recommendation service.
func New(c cache, e embedder, idx vectorIndex) *Service {
	return &Service{cache: c, embedder: e, index: idx, limit: DefaultLimit, knnLimit: DefaultKNNLimit}
}

// WithLimits configures the default result count and the KNN pool size.
func (s *Service) WithLimits(limit, knnLimit int) *Service {
	if limit > 0 {
		s.limit = limit
	}
	if knnLimit > 0 {
		s.knnLimit = knnLimit
	}
	return s
}

// WithCacheMissKick registers a callback fired on cache misses, nudging
// the refresh scheduler. The reader itself never refreshes inline.
func (s *Service) WithCacheMissKick(kick func()) *Service {
	s.kick = kick
	return s
}

// ByTags ranks live streams lexically against the query tags.
func (s *Service) ByTags(ctx context.Context, queryTags []string, limit int) ([]Scored, error) {
	queryTags = normalizeTags(queryTags)
	if len(queryTags) == 0 {
		return []Scored{}, nil
	}
	if limit <= 0 {
		limit = s.limit
	}

	streams, err := s.getStreams(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, 0, len(streams))
	for _, stream := range streams {
		score := lexicalScore(stream, queryTags)
		if score > 0 {
			scored = append(scored, Scored{Stream: stream, Score: score})
		}
	}

	// Stable: cache order breaks ties deterministically.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// BySimilarity ranks live streams by embedding similarity to a free-text
// query. Neighbors that have already left the live cache are dropped;
// similarity order is preserved.
func (s *Service) BySimilarity(ctx context.Context, query string, limit int) ([]Scored, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Scored{}, nil
	}
	if limit <= 0 {
		limit = s.limit
	}

	streams, err := s.getStreams(ctx)
	if err != nil {
		return nil, err
	}
	byChannel := make(map[string]domain.EnrichedStream, len(streams))
	for _, stream := range streams {
		byChannel[stream.ChannelID] = stream
	}

	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := s.index.SearchNearest(ctx, result.Embedding, s.knnLimit)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}

	scored := make([]Scored, 0, limit)
	for _, n := range neighbors {
		stream, ok := byChannel[n.ChannelID]
		if !ok {
			continue
		}
		scored = append(scored, Scored{Stream: stream, Score: n.Similarity})
		if len(scored) == limit {
			break
		}
	}
	return scored, nil
}

func (s *Service) getStreams(ctx context.Context) ([]domain.EnrichedStream, error) {
	streams, err := s.cache.GetStreams(ctx)
	if err != nil {
		if s.kick != nil {
			s.kick()
		}
		return nil, err
	}
	return streams, nil
}

func lexicalScore(stream domain.EnrichedStream, queryTags []string) float64 {
	title := strings.ToLower(stream.Title)
	declared := lowerSet(stream.Tags)
	derived := lowerSet(stream.AITags)

	var score float64
	for _, tag := range queryTags {
		switch {
		case strings.Contains(title, tag):
			score += titleWeight
		case declared[tag]:
			score += declaredWeight
		case derived[tag]:
			score += derivedWeight
		}
	}
	return score
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

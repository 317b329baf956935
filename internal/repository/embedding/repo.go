package embedding

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/streamscout/internal/db"
	"github.com/kailas-cloud/streamscout/internal/domain"
)

// store is the consumer interface for the vector store (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores stream embeddings as Redis hashes under an FT HNSW index.
type Repo struct {
	store     store
	keyPrefix string
	dim       int
	hnsw      HNSWConfig
}

// New creates an embedding repository.
func New(s store, keyPrefix string, dim int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, dim: dim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        r.indexName(),
		StorageType: db.StorageHash,
		Prefixes:    []string{r.keyPrefix + "emb:"},
		Fields: []db.IndexField{
			{Name: "channel_id", Type: db.IndexFieldTag},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert writes one hash row per record in a single pipelined call.
func (r *Repo) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(records))
	for _, rec := range records {
		if len(rec.Vector) != r.dim {
			return fmt.Errorf("channel %s: vector dim %d, want %d", rec.ChannelID, len(rec.Vector), r.dim)
		}
		items = append(items, db.HashSetItem{
			Key: r.rowKey(rec.ChannelID),
			Fields: map[string]string{
				"channel_id": rec.ChannelID,
				"text":       rec.Text,
				"vector":     vectorToBytes(rec.Vector),
				"updated_at": strconv.FormatInt(rec.UpdatedAt, 10),
			},
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert embeddings: %w", err)
	}
	return nil
}

// Delete removes embedding rows for the given channels.
func (r *Repo) Delete(ctx context.Context, channelIDs []string) error {
	if len(channelIDs) == 0 {
		return nil
	}

	keys := make([]string, len(channelIDs))
	for i, id := range channelIDs {
		keys[i] = r.rowKey(id)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	return nil
}

// SearchNearest returns up to k channels ordered by similarity descending.
func (r *Repo) SearchNearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"channel_id", "__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	neighbors := make([]domain.Neighbor, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := e.Fields["channel_id"]
		if id == "" {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{ChannelID: id, Similarity: e.Score})
	}
	return neighbors, nil
}

// Redis key patterns: scout:emb:{channelID}, scout:emb:idx

func (r *Repo) rowKey(channelID string) string {
	return r.keyPrefix + "emb:" + channelID
}

func (r *Repo) indexName() string {
	return r.keyPrefix + "emb:idx"
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

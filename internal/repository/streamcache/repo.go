package streamcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/streamscout/internal/db"
	"github.com/kailas-cloud/streamscout/internal/domain"
)

// store is the consumer interface for the live cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo stores the enriched live catalog and its change-detection snapshot
// as TTL-bound Redis values.
type Repo struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a live cache repository.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// SaveStreams replaces the enriched catalog blob, resetting its TTL.
func (r *Repo) SaveStreams(ctx context.Context, streams []domain.EnrichedStream) error {
	data, err := json.Marshal(streams)
	if err != nil {
		return fmt.Errorf("marshal streams: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.streamsKey(), data, r.ttl); err != nil {
		return fmt.Errorf("set streams: %w", err)
	}
	return nil
}

// GetStreams returns the cached enriched catalog.
// Returns domain.ErrCacheMiss when the blob is absent or expired.
func (r *Repo) GetStreams(ctx context.Context) ([]domain.EnrichedStream, error) {
	data, err := r.store.Get(ctx, r.streamsKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("get streams: %w", err)
	}

	var streams []domain.EnrichedStream
	if err := json.Unmarshal(data, &streams); err != nil {
		return nil, fmt.Errorf("unmarshal streams: %w", err)
	}
	return streams, nil
}

// SaveSignatures replaces the channel→signature snapshot, resetting its TTL.
func (r *Repo) SaveSignatures(ctx context.Context, sigs map[string]string) error {
	data, err := json.Marshal(sigs)
	if err != nil {
		return fmt.Errorf("marshal signatures: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.signaturesKey(), data, r.ttl); err != nil {
		return fmt.Errorf("set signatures: %w", err)
	}
	return nil
}

// GetSignatures returns the previous cycle's snapshot.
// Returns domain.ErrSnapshotUnavailable when absent or expired; the caller
// must then treat every current stream as new.
func (r *Repo) GetSignatures(ctx context.Context) (map[string]string, error) {
	data, err := r.store.Get(ctx, r.signaturesKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrSnapshotUnavailable
		}
		return nil, fmt.Errorf("get signatures: %w", err)
	}

	var sigs map[string]string
	if err := json.Unmarshal(data, &sigs); err != nil {
		return nil, fmt.Errorf("unmarshal signatures: %w", err)
	}
	return sigs, nil
}

// Redis key patterns: scout:live:streams, scout:live:signatures

func (r *Repo) streamsKey() string {
	return r.keyPrefix + "live:streams"
}

func (r *Repo) signaturesKey() string {
	return r.keyPrefix + "live:signatures"
}

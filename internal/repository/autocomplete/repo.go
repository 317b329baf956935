package autocomplete

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// store is the consumer interface for the autocomplete index (ISP).
type store interface {
	ZAdd(ctx context.Context, key string, members []string) error
	ZRangeByLex(ctx context.Context, key, min, max string, count int) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Repo maintains per-namespace prefix indexes as Redis sorted sets.
// Every member has score 0 and the form "name:count", so ZRANGEBYLEX
// scans members by name prefix and the usage count rides along.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates an autocomplete repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Rebuild atomically replaces a namespace index with the given usage counts.
func (r *Repo) Rebuild(ctx context.Context, ns domain.Namespace, counts map[string]int64) error {
	key := r.indexKey(ns)

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del index %s: %w", ns, err)
	}
	if len(counts) == 0 {
		return nil
	}

	members := make([]string, 0, len(counts))
	for name, count := range counts {
		members = append(members, encodeMember(name, count))
	}
	if err := r.store.ZAdd(ctx, key, members); err != nil {
		return fmt.Errorf("zadd index %s: %w", ns, err)
	}
	return nil
}

// Search returns up to limit tags whose name starts with prefix,
// ordered by usage count descending.
func (r *Repo) Search(ctx context.Context, ns domain.Namespace, prefix string, limit int) ([]domain.Tag, error) {
	min := "[" + prefix
	max := "[" + prefix + "\uffff"

	members, err := r.store.ZRangeByLex(ctx, r.indexKey(ns), min, max, limit)
	if err != nil {
		return nil, fmt.Errorf("zrangebylex index %s: %w", ns, err)
	}

	tags := make([]domain.Tag, 0, len(members))
	for _, m := range members {
		name, count, ok := decodeMember(m)
		if !ok {
			continue
		}
		tags = append(tags, domain.Tag{Name: name, Namespace: ns, UsageCount: count})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].UsageCount > tags[j].UsageCount
	})

	return tags, nil
}

// Redis key pattern: scout:ac:{namespace}

func (r *Repo) indexKey(ns domain.Namespace) string {
	return fmt.Sprintf("%sac:%s", r.keyPrefix, ns)
}

func encodeMember(name string, count int64) string {
	return fmt.Sprintf("%s:%d", name, count)
}

// decodeMember splits "name:count" on the last colon; tag names may
// contain colons themselves.
func decodeMember(m string) (string, int64, bool) {
	idx := strings.LastIndex(m, ":")
	if idx <= 0 {
		return "", 0, false
	}
	count, err := strconv.ParseInt(m[idx+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[:idx], count, true
}

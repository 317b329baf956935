package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// DefaultLimit caps suggestion counts when the caller passes none.
const DefaultLimit = 10

// Service rebuilds and queries the per-namespace prefix indexes.
type Service struct {
	ledger ledgerStore
	index  index
}

// New creates an autocomplete service.
func New(ledger ledgerStore, idx index) *Service {
	return &Service{ledger: ledger, index: idx}
}

// RebuildAll re-derives both namespace indexes from the ledger.
// Namespaces are independent; failures are joined.
func (s *Service) RebuildAll(ctx context.Context) error {
	var errs []error
	for _, ns := range domain.Namespaces() {
		if err := s.rebuild(ctx, ns); err != nil {
			errs = append(errs, fmt.Errorf("namespace %s: %w", ns, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) rebuild(ctx context.Context, ns domain.Namespace) error {
	tags, err := s.ledger.ListActive(ctx, ns)
	if err != nil {
		return fmt.Errorf("list active tags: %w", err)
	}

	counts := make(map[string]int64, len(tags))
	for _, tag := range tags {
		counts[tag.Name] = tag.UsageCount
	}
	if err := s.index.Rebuild(ctx, ns, counts); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	return nil
}

// Search returns suggestions for a prefix, ordered by usage descending.
// A blank prefix yields no suggestions.
func (s *Service) Search(ctx context.Context, ns domain.Namespace, prefix string, limit int) ([]domain.Tag, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []domain.Tag{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	tags, err := s.index.Search(ctx, ns, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return tags, nil
}

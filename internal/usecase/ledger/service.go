package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
	"github.com/kailas-cloud/streamscout/internal/logger"
)

// Service reconciles the durable tag vocabulary with each snapshot:
// soft-deleted names that reappear are restored, known names get their
// usage incremented, unseen names are created.
type Service struct {
	store store
}

// New creates a ledger service.
func New(s store) *Service {
	return &Service{store: s}
}

// ReconcileAll reconciles both namespaces from the snapshot. A failure in
// one namespace does not prevent the other from being attempted; all
// failures are joined into the returned error.
func (s *Service) ReconcileAll(ctx context.Context, streams []domain.LiveStream) error {
	categories, custom := domain.TagOccurrences(streams)
	log := logger.FromContext(ctx)

	var errs []error
	for _, run := range []struct {
		ns     domain.Namespace
		counts map[string]int64
	}{
		{domain.NamespaceCategory, categories},
		{domain.NamespaceCustom, custom},
	} {
		if err := s.Reconcile(ctx, run.ns, run.counts); err != nil {
			log.Error("ledger reconciliation failed",
				zap.String("namespace", string(run.ns)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("namespace %s: %w", run.ns, err))
		}
	}
	return errors.Join(errs...)
}

// Reconcile applies one namespace's occurrence counts to the ledger.
func (s *Service) Reconcile(ctx context.Context, ns domain.Namespace, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}

	existing, err := s.store.FindByNames(ctx, ns, names)
	if err != nil {
		return fmt.Errorf("find tags: %w", err)
	}

	known := make(map[string]domain.Tag, len(existing))
	for _, tag := range existing {
		known[tag.Name] = tag
	}

	updates := make([]domain.Tag, 0, len(counts))
	for name, count := range counts {
		tag, ok := known[name]
		if !ok {
			updates = append(updates, domain.Tag{Name: name, Namespace: ns, UsageCount: count})
			continue
		}
		tag.UsageCount += count
		tag.Deleted = false
		updates = append(updates, tag)
	}

	if err := s.store.SaveTags(ctx, updates); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

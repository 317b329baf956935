package refresh

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
	"github.com/kailas-cloud/streamscout/internal/logger"
	"github.com/kailas-cloud/streamscout/internal/metrics"
)

// Service runs one refresh cycle: fetch the live snapshot, detect
// changes against the previous one, enrich and re-embed the changed
// subset, publish the derived cache, and fan notifications out.
type Service struct {
	catalog      CatalogFetcher
	enricher     Enricher
	cache        Cache
	embeddings   EmbeddingSyncer
	ledger       LedgerReconciler
	autocomplete AutocompleteRebuilder
	notifier     Notifier

	// mu enforces single-flight: an overlapping cycle is refused, never
	// queued.
	mu  sync.Mutex
	now func() time.Time
}

// New creates a refresh service. The notifier may be nil when delivery
// is disabled.
func New(
	catalog CatalogFetcher,
	enricher Enricher,
	cache Cache,
	embeddings EmbeddingSyncer,
	ledger LedgerReconciler,
	autocomplete AutocompleteRebuilder,
	notifier Notifier,
) *Service {
	return &Service{
		catalog:      catalog,
		enricher:     enricher,
		cache:        cache,
		embeddings:   embeddings,
		ledger:       ledger,
		autocomplete: autocomplete,
		notifier:     notifier,
		now:          time.Now,
	}
}

// RunCycle executes one full refresh. notify controls the fan-out step:
// the initial cycle after startup publishes without notifying, so a
// restart does not replay every live stream as "new".
//
// A fetch or publish failure aborts the cycle and leaves the previous
// cache intact. Enrichment and embedding failures degrade per chunk
// inside their services and never abort.
func (s *Service) RunCycle(ctx context.Context, notify bool) error {
	if !s.mu.TryLock() {
		metrics.RefreshCyclesTotal.WithLabelValues("in_flight").Inc()
		return domain.ErrRefreshInFlight
	}
	defer s.mu.Unlock()

	start := s.now()
	err := s.runCycle(ctx, notify)
	metrics.RefreshCycleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RefreshCyclesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.RefreshCyclesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) runCycle(ctx context.Context, notify bool) error {
	log := logger.FromContext(ctx)

	streams, err := s.catalog.FetchLive(ctx)
	if err != nil {
		return fmt.Errorf("fetch live snapshot: %w", err)
	}

	current := domain.Signatures(streams)
	previous, err := s.cache.GetSignatures(ctx)
	if err != nil {
		// First cycle or an expired snapshot: everything counts as new.
		log.Info("no previous snapshot, treating all streams as new", zap.Error(err))
		previous = map[string]string{}
	}

	cs := domain.DetectChanges(current, previous)
	metrics.StreamsChanged.WithLabelValues("new").Add(float64(len(cs.New)))
	metrics.StreamsChanged.WithLabelValues("changed").Add(float64(len(cs.Changed)))
	metrics.StreamsChanged.WithLabelValues("ended").Add(float64(len(cs.Ended)))
	log.Info("change detection complete",
		zap.Int("total", len(streams)),
		zap.Int("new", len(cs.New)),
		zap.Int("changed", len(cs.Changed)),
		zap.Int("ended", len(cs.Ended)),
	)

	changedSet := cs.AllChanged()
	changed := filterStreams(streams, changedSet)
	ended := sortedIDs(cs.Ended)

	// Enrichment and embedding depend only on the changed subset and
	// not on each other, so they run concurrently.
	var (
		wg       sync.WaitGroup
		aiTags   map[string][]string
		embedErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		aiTags = s.enricher.Enrich(ctx, changed)
	}()
	go func() {
		defer wg.Done()
		embedErr = s.embeddings.Sync(ctx, ended, changed)
	}()
	wg.Wait()
	if embedErr != nil {
		log.Warn("embedding sync failed, vectors retried next cycle", zap.Error(embedErr))
	}

	if err := s.ledger.ReconcileAll(ctx, changed); err != nil {
		log.Warn("ledger reconcile failed", zap.Error(err))
	}

	enriched := s.assembleEnriched(ctx, streams, changedSet, aiTags)

	if err := s.cache.SaveStreams(ctx, enriched); err != nil {
		return fmt.Errorf("publish streams: %w", err)
	}
	if err := s.cache.SaveSignatures(ctx, current); err != nil {
		return fmt.Errorf("publish signatures: %w", err)
	}

	if err := s.autocomplete.RebuildAll(ctx); err != nil {
		log.Warn("autocomplete rebuild failed", zap.Error(err))
	}

	if notify && s.notifier != nil && len(changedSet) > 0 {
		// Detached from the cycle: delivery latency must not delay the
		// next tick, and a canceled cycle context must not drop sends.
		go s.notifier.Notify(context.WithoutCancel(ctx), changedSet, enriched)
	}

	log.Info("refresh cycle published", zap.Int("streams", len(enriched)))
	return nil
}

// assembleEnriched builds the published record set. Changed streams use
// their fresh enrichment where the chunk succeeded and degrade to
// declared data where it failed. Unchanged streams carry the previous
// cycle's AI tags forward onto the current snapshot fields, keeping
// volatile data like viewer counts fresh.
func (s *Service) assembleEnriched(
	ctx context.Context,
	streams []domain.LiveStream,
	changedSet map[string]struct{},
	aiTags map[string][]string,
) []domain.EnrichedStream {
	previous := map[string][]string{}
	if prev, err := s.cache.GetStreams(ctx); err == nil {
		for _, p := range prev {
			previous[p.ChannelID] = p.AITags
		}
	}

	enriched := make([]domain.EnrichedStream, 0, len(streams))
	for _, stream := range streams {
		if _, isChanged := changedSet[stream.ChannelID]; isChanged {
			if tags, ok := aiTags[stream.ChannelID]; ok {
				enriched = append(enriched, domain.Enrich(stream, tags))
			} else {
				enriched = append(enriched, domain.EnrichFallback(stream))
			}
			continue
		}
		if tags, ok := previous[stream.ChannelID]; ok {
			enriched = append(enriched, domain.Enrich(stream, tags))
		} else {
			enriched = append(enriched, domain.EnrichFallback(stream))
		}
	}
	return enriched
}

func filterStreams(streams []domain.LiveStream, ids map[string]struct{}) []domain.LiveStream {
	out := make([]domain.LiveStream, 0, len(ids))
	for _, s := range streams {
		if _, ok := ids[s.ChannelID]; ok {
			out = append(out, s)
		}
	}
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

type mockCatalog struct {
	streams []domain.LiveStream
	err     error
	started chan struct{}
	block   chan struct{}
	calls   atomic.Int64
}

func (m *mockCatalog) FetchLive(_ context.Context) ([]domain.LiveStream, error) {
	m.calls.Add(1)
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	return m.streams, m.err
}

type mockEnricher struct {
	mu     sync.Mutex
	got    []domain.LiveStream
	result map[string][]string
}

func (m *mockEnricher) Enrich(_ context.Context, streams []domain.LiveStream) map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = streams
	return m.result
}

type mockCache struct {
	mu         sync.Mutex
	streams    []domain.EnrichedStream
	signatures map[string]string

	saveStreamsErr error
	savedStreams   []domain.EnrichedStream
	savedSigs      map[string]string
}

func (m *mockCache) SaveStreams(_ context.Context, streams []domain.EnrichedStream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveStreamsErr != nil {
		return m.saveStreamsErr
	}
	m.savedStreams = streams
	return nil
}

func (m *mockCache) GetStreams(_ context.Context) ([]domain.EnrichedStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streams == nil {
		return nil, domain.ErrCacheMiss
	}
	return m.streams, nil
}

func (m *mockCache) SaveSignatures(_ context.Context, sigs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedSigs = sigs
	return nil
}

func (m *mockCache) GetSignatures(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signatures == nil {
		return nil, domain.ErrSnapshotUnavailable
	}
	return m.signatures, nil
}

type mockEmbedSync struct {
	mu      sync.Mutex
	ended   []string
	changed []domain.LiveStream
	err     error
}

func (m *mockEmbedSync) Sync(_ context.Context, ended []string, changed []domain.LiveStream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = ended
	m.changed = changed
	return m.err
}

type mockLedger struct {
	mu  sync.Mutex
	got []domain.LiveStream
}

func (m *mockLedger) ReconcileAll(_ context.Context, streams []domain.LiveStream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = streams
	return nil
}

type mockRebuilder struct{ calls int }

func (m *mockRebuilder) RebuildAll(_ context.Context) error {
	m.calls++
	return nil
}

type mockNotifier struct {
	called  chan struct{}
	changed map[string]struct{}
	streams []domain.EnrichedStream
}

func (m *mockNotifier) Notify(_ context.Context, changed map[string]struct{}, streams []domain.EnrichedStream) {
	m.changed = changed
	m.streams = streams
	close(m.called)
}

type fixture struct {
	catalog   *mockCatalog
	enricher  *mockEnricher
	cache     *mockCache
	embedSync *mockEmbedSync
	ledger    *mockLedger
	rebuilder *mockRebuilder
	notifier  *mockNotifier
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		catalog:   &mockCatalog{},
		enricher:  &mockEnricher{},
		cache:     &mockCache{},
		embedSync: &mockEmbedSync{},
		ledger:    &mockLedger{},
		rebuilder: &mockRebuilder{},
		notifier:  &mockNotifier{called: make(chan struct{})},
	}
	f.svc = New(f.catalog, f.enricher, f.cache, f.embedSync, f.ledger, f.rebuilder, f.notifier)
	return f
}

func live(channelID, category string, viewers int, tags ...string) domain.LiveStream {
	return domain.LiveStream{
		ChannelID:   channelID,
		ChannelName: channelID + "-name",
		Title:       channelID + " title",
		Category:    category,
		Tags:        tags,
		ViewerCount: viewers,
	}
}

func TestRunCycle_FetchErrorKeepsPreviousCache(t *testing.T) {
	f := newFixture()
	f.catalog.err = errors.New("upstream 500")
	f.cache.streams = []domain.EnrichedStream{{LiveStream: live("ch1", "game", 10)}}

	err := f.svc.RunCycle(context.Background(), true)
	if err == nil {
		t.Fatal("expected fetch error to abort the cycle")
	}
	if f.cache.savedStreams != nil || f.cache.savedSigs != nil {
		t.Error("a failed cycle must not publish anything")
	}
}

func TestRunCycle_SingleFlight(t *testing.T) {
	f := newFixture()
	f.catalog.started = make(chan struct{}, 1)
	f.catalog.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- f.svc.RunCycle(context.Background(), false)
	}()

	// FetchLive runs with the lock held, so this waits for in-flight state.
	select {
	case <-f.catalog.started:
	case <-time.After(time.Second):
		t.Fatal("first cycle never started")
	}

	if err := f.svc.RunCycle(context.Background(), false); !errors.Is(err, domain.ErrRefreshInFlight) {
		t.Fatalf("expected ErrRefreshInFlight, got %v", err)
	}

	close(f.catalog.block)
	if err := <-done; err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
}

func TestRunCycle_OnlyChangedSubsetIsProcessed(t *testing.T) {
	f := newFixture()
	unchanged := live("ch1", "game", 10, "rpg")
	changed := live("ch2", "music", 20)
	f.catalog.streams = []domain.LiveStream{unchanged, changed}
	f.cache.signatures = map[string]string{
		"ch1": unchanged.Signature(),
		"ch2": "stale-signature",
		"ch3": "ended-signature",
	}
	f.cache.streams = []domain.EnrichedStream{
		{LiveStream: unchanged, AITags: []string{"rpg", "cozy"}},
	}
	f.enricher.result = map[string][]string{"ch2": {"music", "jazz"}}

	if err := f.svc.RunCycle(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.enricher.got) != 1 || f.enricher.got[0].ChannelID != "ch2" {
		t.Errorf("enricher should see only changed streams, got %+v", f.enricher.got)
	}
	if len(f.embedSync.changed) != 1 || f.embedSync.changed[0].ChannelID != "ch2" {
		t.Errorf("embed sync should see only changed streams, got %+v", f.embedSync.changed)
	}
	if len(f.embedSync.ended) != 1 || f.embedSync.ended[0] != "ch3" {
		t.Errorf("expected ended id ch3, got %v", f.embedSync.ended)
	}
	if len(f.ledger.got) != 1 || f.ledger.got[0].ChannelID != "ch2" {
		t.Errorf("ledger should see only changed streams, got %+v", f.ledger.got)
	}
	if f.rebuilder.calls != 1 {
		t.Errorf("expected one autocomplete rebuild, got %d", f.rebuilder.calls)
	}
}

func TestRunCycle_CarryForwardKeepsTagsWithFreshFields(t *testing.T) {
	f := newFixture()
	previous := live("ch1", "game", 10, "rpg")
	current := previous
	current.ViewerCount = 999
	f.catalog.streams = []domain.LiveStream{current}
	f.cache.signatures = map[string]string{"ch1": previous.Signature()}
	f.cache.streams = []domain.EnrichedStream{
		{LiveStream: previous, AITags: []string{"rpg", "open-world"}},
	}

	if err := f.svc.RunCycle(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.cache.savedStreams) != 1 {
		t.Fatalf("expected 1 published stream, got %d", len(f.cache.savedStreams))
	}
	got := f.cache.savedStreams[0]
	if got.ViewerCount != 999 {
		t.Errorf("carry-forward must keep current snapshot fields, got viewers %d", got.ViewerCount)
	}
	if len(got.AITags) != 2 || got.AITags[1] != "open-world" {
		t.Errorf("carry-forward must keep previous AI tags, got %v", got.AITags)
	}
}

func TestRunCycle_FallbackWhenEnrichmentMissing(t *testing.T) {
	f := newFixture()
	f.catalog.streams = []domain.LiveStream{live("ch1", "game", 10, "rpg", "coop")}
	f.cache.signatures = map[string]string{}
	// enricher returns nothing: the chunk failed
	f.enricher.result = map[string][]string{}

	if err := f.svc.RunCycle(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := f.cache.savedStreams[0]
	want := []string{"game", "rpg", "coop"}
	if len(got.AITags) != len(want) {
		t.Fatalf("expected fallback tags %v, got %v", want, got.AITags)
	}
	for i := range want {
		if got.AITags[i] != want[i] {
			t.Fatalf("expected fallback tags %v, got %v", want, got.AITags)
		}
	}
}

func TestRunCycle_InitialCycleDoesNotNotify(t *testing.T) {
	f := newFixture()
	f.catalog.streams = []domain.LiveStream{live("ch1", "game", 10)}
	f.enricher.result = map[string][]string{"ch1": {"game"}}

	if err := f.svc.RunCycle(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-f.notifier.called:
		t.Error("initial cycle must not notify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunCycle_NotifiesWithChangedSet(t *testing.T) {
	f := newFixture()
	unchanged := live("ch1", "game", 10)
	f.catalog.streams = []domain.LiveStream{unchanged, live("ch2", "music", 5)}
	f.cache.signatures = map[string]string{"ch1": unchanged.Signature()}
	f.enricher.result = map[string][]string{"ch2": {"music"}}

	if err := f.svc.RunCycle(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-f.notifier.called:
	case <-time.After(time.Second):
		t.Fatal("notifier was never called")
	}
	if _, ok := f.notifier.changed["ch2"]; !ok || len(f.notifier.changed) != 1 {
		t.Errorf("expected changed set {ch2}, got %v", f.notifier.changed)
	}
	if len(f.notifier.streams) != 2 {
		t.Errorf("notifier should receive the full published set, got %d", len(f.notifier.streams))
	}
}

func TestRunCycle_PublishErrorAborts(t *testing.T) {
	f := newFixture()
	f.catalog.streams = []domain.LiveStream{live("ch1", "game", 10)}
	f.enricher.result = map[string][]string{"ch1": {"game"}}
	f.cache.saveStreamsErr = errors.New("redis down")

	if err := f.svc.RunCycle(context.Background(), true); err == nil {
		t.Fatal("expected publish failure to abort the cycle")
	}
	if f.cache.savedSigs != nil {
		t.Error("signatures must not be published after a failed stream publish")
	}
}

func TestRunCycle_EmbeddingFailureDoesNotAbort(t *testing.T) {
	f := newFixture()
	f.catalog.streams = []domain.LiveStream{live("ch1", "game", 10)}
	f.enricher.result = map[string][]string{"ch1": {"game"}}
	f.embedSync.err = errors.New("vector store down")

	if err := f.svc.RunCycle(context.Background(), false); err != nil {
		t.Fatalf("embedding failure must degrade, not abort: %v", err)
	}
	if f.cache.savedStreams == nil {
		t.Error("cycle should still publish after an embedding failure")
	}
}

package streamcache

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "scout:", 15*time.Minute)
	return repo, ms
}

func testStream(channelID, title string) domain.EnrichedStream {
	return domain.EnrichedStream{
		LiveStream: domain.LiveStream{
			ChannelID:   channelID,
			ChannelName: "channel-" + channelID,
			Title:       title,
			Category:    "game",
			Tags:        []string{"rpg"},
			ViewerCount: 120,
		},
		AITags: []string{"adventure", "story"},
	}
}

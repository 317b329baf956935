package autocomplete

import (
	"context"
	"testing"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	zaddFn        func(ctx context.Context, key string, members []string) error
	zrangeByLexFn func(ctx context.Context, key, min, max string, count int) ([]string, error)
	delFn         func(ctx context.Context, key string) error
}

func (m *mockStore) ZAdd(ctx context.Context, key string, members []string) error {
	if m.zaddFn != nil {
		return m.zaddFn(ctx, key, members)
	}
	return nil
}

func (m *mockStore) ZRangeByLex(ctx context.Context, key, min, max string, count int) ([]string, error) {
	if m.zrangeByLexFn != nil {
		return m.zrangeByLexFn(ctx, key, min, max, count)
	}
	return nil, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "scout:")
	return repo, ms
}

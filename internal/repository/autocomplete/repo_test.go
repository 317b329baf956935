package autocomplete

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

func TestRebuild_ReplacesIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	var delKey string
	var addKey string
	var members []string
	ms.delFn = func(_ context.Context, key string) error {
		delKey = key
		return nil
	}
	ms.zaddFn = func(_ context.Context, key string, m []string) error {
		addKey = key
		members = m
		return nil
	}

	counts := map[string]int64{"rpg": 12, "strategy": 3}
	if err := repo.Rebuild(context.Background(), domain.NamespaceCustom, counts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if delKey != "scout:ac:custom" || addKey != "scout:ac:custom" {
		t.Errorf("unexpected keys: del=%q add=%q", delKey, addKey)
	}

	sort.Strings(members)
	want := []string{"rpg:12", "strategy:3"}
	if len(members) != 2 || members[0] != want[0] || members[1] != want[1] {
		t.Errorf("unexpected members: %v", members)
	}
}

func TestRebuild_EmptyCountsOnlyClears(t *testing.T) {
	repo, ms := newTestRepo(t)

	deleted := false
	ms.delFn = func(_ context.Context, _ string) error {
		deleted = true
		return nil
	}
	ms.zaddFn = func(_ context.Context, _ string, _ []string) error {
		t.Fatal("zadd must not be called for empty counts")
		return nil
	}

	if err := repo.Rebuild(context.Background(), domain.NamespaceCategory, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected index key to be deleted")
	}
}

func TestSearch_PrefixBoundsAndOrdering(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.zrangeByLexFn = func(_ context.Context, key, min, max string, count int) ([]string, error) {
		if key != "scout:ac:custom" {
			t.Errorf("unexpected key %q", key)
		}
		if min != "[ro" {
			t.Errorf("unexpected min bound %q", min)
		}
		if max != "[ro\uffff" {
			t.Errorf("unexpected max bound %q", max)
		}
		if count != 10 {
			t.Errorf("unexpected count %d", count)
		}
		return []string{"roguelike:4", "rogue:17", "roleplay:9"}, nil
	}

	tags, err := repo.Search(context.Background(), domain.NamespaceCustom, "ro", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"rogue", "roleplay", "roguelike"}
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(tags))
	}
	for i, name := range wantOrder {
		if tags[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, tags[i].Name)
		}
	}
	if tags[0].UsageCount != 17 {
		t.Errorf("expected usage 17, got %d", tags[0].UsageCount)
	}
}

func TestSearch_SkipsMalformedMembers(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.zrangeByLexFn = func(_ context.Context, _, _, _ string, _ int) ([]string, error) {
		return []string{"valid:3", "garbage", "other:notanumber"}, nil
	}

	tags, err := repo.Search(context.Background(), domain.NamespaceCategory, "v", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "valid" {
		t.Errorf("expected only the valid member, got %+v", tags)
	}
}

func TestSearch_NameWithColon(t *testing.T) {
	name, count, ok := decodeMember("just chatting: korea:42")
	if !ok {
		t.Fatal("expected member to decode")
	}
	if name != "just chatting: korea" || count != 42 {
		t.Errorf("unexpected decode: name=%q count=%d", name, count)
	}
}

func TestSearch_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.zrangeByLexFn = func(_ context.Context, _, _, _ string, _ int) ([]string, error) {
		return nil, errors.New("boom")
	}

	_, err := repo.Search(context.Background(), domain.NamespaceCustom, "a", 5)
	if err == nil {
		t.Fatal("expected error")
	}
}

package tags

import (
	"context"
	"testing"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

func TestSaveTags_FindByNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []domain.Tag{
		{Name: "rpg", Namespace: domain.NamespaceCustom, UsageCount: 3},
		{Name: "retired", Namespace: domain.NamespaceCustom, UsageCount: 1, Deleted: true},
	}
	if err := s.SaveTags(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := s.FindByNames(ctx, domain.NamespaceCustom, []string{"rpg", "retired", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 tags (deleted included), got %d", len(found))
	}

	byName := make(map[string]domain.Tag, len(found))
	for _, tag := range found {
		byName[tag.Name] = tag
	}
	if byName["rpg"].UsageCount != 3 {
		t.Errorf("unexpected rpg usage: %d", byName["rpg"].UsageCount)
	}
	if !byName["retired"].Deleted {
		t.Error("expected deleted tag to be returned by FindByNames")
	}
}

func TestFindByNames_NamespaceIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []domain.Tag{
		{Name: "minecraft", Namespace: domain.NamespaceCategory, UsageCount: 7},
	}
	if err := s.SaveTags(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := s.FindByNames(ctx, domain.NamespaceCustom, []string{"minecraft"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no tags in custom namespace, got %+v", found)
	}
}

func TestListActive_ExcludesDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []domain.Tag{
		{Name: "alive", Namespace: domain.NamespaceCustom, UsageCount: 2},
		{Name: "dead", Namespace: domain.NamespaceCustom, UsageCount: 9, Deleted: true},
		{Name: "other-ns", Namespace: domain.NamespaceCategory, UsageCount: 1},
	}
	if err := s.SaveTags(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := s.ListActive(ctx, domain.NamespaceCustom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].Name != "alive" {
		t.Errorf("expected only the live custom tag, got %+v", active)
	}
}

func TestSaveTags_OverwriteUpdatesUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := domain.Tag{Name: "rpg", Namespace: domain.NamespaceCustom, UsageCount: 1}
	if err := s.SaveTags(ctx, []domain.Tag{tag}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tag.UsageCount = 5
	if err := s.SaveTags(ctx, []domain.Tag{tag}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := s.FindByNames(ctx, domain.NamespaceCustom, []string{"rpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 || found[0].UsageCount != 5 {
		t.Errorf("expected usage 5, got %+v", found)
	}
}

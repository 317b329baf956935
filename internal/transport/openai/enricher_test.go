package openai

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

func TestParseBatchResponse_PlainJSON(t *testing.T) {
	content := `{"results":[{"channelId":"ch1","originalTags":["rpg"],"aiTags":["adventure","story","open world"],"confidence":0.9}]}`

	batch, err := parseBatchResponse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(batch.Results))
	}
	res := batch.Results[0]
	if res.ChannelID != "ch1" || len(res.AITags) != 3 || res.Confidence != 0.9 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestParseBatchResponse_MarkdownFenced(t *testing.T) {
	content := "```json\n{\"results\":[{\"channelId\":\"ch1\",\"aiTags\":[\"a\",\"b\",\"c\"],\"confidence\":0.5}]}\n```"

	batch, err := parseBatchResponse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Results) != 1 || batch.Results[0].ChannelID != "ch1" {
		t.Errorf("unexpected batch: %+v", batch)
	}
}

func TestParseBatchResponse_InvalidJSON(t *testing.T) {
	_, err := parseBatchResponse("not json at all")
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestParseBatchResponse_FailsValidation(t *testing.T) {
	content := `{"results":[{"channelId":"","aiTags":["a"],"confidence":0.5}]}`

	_, err := parseBatchResponse(content)
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestAlignResults_ReordersByChannel(t *testing.T) {
	inputs := []domain.EnrichmentInput{
		{ChannelID: "ch1"},
		{ChannelID: "ch2"},
	}
	results := []domain.TagResult{
		{ChannelID: "ch2", AITags: []string{"b"}, Confidence: 0.4},
		{ChannelID: "ch1", AITags: []string{"a"}, Confidence: 0.8},
	}

	ordered, err := alignResults(inputs, results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ordered[0].ChannelID != "ch1" || ordered[1].ChannelID != "ch2" {
		t.Errorf("unexpected order: %+v", ordered)
	}
}

func TestEnsureDeclaredTags_RestoresDroppedTags(t *testing.T) {
	in := domain.EnrichmentInput{
		ChannelID: "ch1",
		Category:  "RPG",
		Tags:      []string{"coop", "Hardcore"},
	}
	res := domain.TagResult{
		ChannelID: "ch1",
		AITags:    []string{"adventure", "coop", "story"},
	}

	ensureDeclaredTags(&res, in)

	want := []string{"adventure", "coop", "story", "rpg", "hardcore"}
	if len(res.AITags) != len(want) {
		t.Fatalf("expected tags %v, got %v", want, res.AITags)
	}
	for i := range want {
		if res.AITags[i] != want[i] {
			t.Fatalf("expected tags %v, got %v", want, res.AITags)
		}
	}
	if len(res.OriginalTags) != 2 {
		t.Errorf("expected declared tags carried over, got %v", res.OriginalTags)
	}
}

func TestEnsureDeclaredTags_NoDuplicatesWhenPresent(t *testing.T) {
	in := domain.EnrichmentInput{ChannelID: "ch1", Category: "game", Tags: []string{"rpg"}}
	res := domain.TagResult{ChannelID: "ch1", AITags: []string{"game", "rpg", "cozy"}}

	ensureDeclaredTags(&res, in)

	if len(res.AITags) != 3 {
		t.Errorf("tags already present must not be duplicated, got %v", res.AITags)
	}
}

func TestAlignResults_MissingChannel(t *testing.T) {
	inputs := []domain.EnrichmentInput{{ChannelID: "ch1"}, {ChannelID: "ch2"}}
	results := []domain.TagResult{{ChannelID: "ch1", AITags: []string{"a"}, Confidence: 0.8}}

	_, err := alignResults(inputs, results)
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

package domain

import "fmt"

// EnrichmentInput is one stream sent to the tag-enrichment provider.
type EnrichmentInput struct {
	ChannelID string   `json:"channelId"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Tags      []string `json:"existingTags"`
}

// EnrichmentInputFrom builds the provider payload from a snapshot record.
func EnrichmentInputFrom(s LiveStream) EnrichmentInput {
	return EnrichmentInput{
		ChannelID: s.ChannelID,
		Title:     s.Title,
		Category:  s.Category,
		Tags:      s.Tags,
	}
}

// TagResult is one stream's enrichment outcome. OriginalTags echoes the
// input (category + declared tags) for change detection and audit;
// AITags is a superset of it with title keywords and semantic tags.
type TagResult struct {
	ChannelID    string   `json:"channelId"`
	OriginalTags []string `json:"originalTags"`
	AITags       []string `json:"aiTags"`
	Confidence   float64  `json:"confidence"`
}

// Validate checks the declared provider response shape. A violation is
// a recoverable per-chunk error, never a crash.
func (r TagResult) Validate() error {
	if r.ChannelID == "" {
		return fmt.Errorf("missing channelId: %w", ErrInvalidResponse)
	}
	if len(r.AITags) == 0 {
		return fmt.Errorf("empty aiTags for %s: %w", r.ChannelID, ErrInvalidResponse)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %f out of range for %s: %w", r.Confidence, r.ChannelID, ErrInvalidResponse)
	}
	return nil
}

// BatchTagResult is the provider's per-chunk response envelope.
type BatchTagResult struct {
	Results []TagResult `json:"results"`
}

// Validate checks every result in the batch.
func (b BatchTagResult) Validate() error {
	for _, r := range b.Results {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

package domain

import "strings"

// EmbeddingResult is one vectorized text plus token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingRecord is one row in the vector store, keyed by channel id.
// UpdatedAt is unix seconds.
type EmbeddingRecord struct {
	ChannelID string
	Text      string
	Vector    []float32
	UpdatedAt int64
}

// Neighbor is one nearest-neighbor hit. Similarity is cosine, in [0,1],
// 1 meaning identical direction.
type Neighbor struct {
	ChannelID  string
	Similarity float64
}

// EmbeddingText renders the canonical text a stream is embedded from.
// Only stable fields participate: title, channel name, category and
// declared tags. Viewer count is volatile and would force spurious
// re-embedding, so it never appears here.
func EmbeddingText(s LiveStream) string {
	var sb strings.Builder
	sb.WriteString("title: ")
	sb.WriteString(s.Title)
	sb.WriteString(", channel: ")
	sb.WriteString(s.ChannelName)

	if s.Category != "" {
		sb.WriteString(", category: ")
		sb.WriteString(s.Category)
	}
	if len(s.Tags) > 0 {
		sb.WriteString(", tags: ")
		sb.WriteString(strings.Join(s.Tags, ", "))
	}

	return sb.String()
}

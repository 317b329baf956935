package domain

import (
	"crypto/md5" //nolint:gosec // change-detection fingerprint, not a security boundary
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// LiveStream is one broadcast record from the upstream catalog snapshot.
// It lives for a single refresh cycle.
type LiveStream struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	ViewerCount int       `json:"viewer_count"`
	OpenedAt    time.Time `json:"opened_at"`
}

// Signature fingerprints the fields that make a stream "changed":
// category plus the declared tag set. Title and viewer count are
// volatile and deliberately excluded.
func (s LiveStream) Signature() string {
	tags := make([]string, len(s.Tags))
	copy(tags, s.Tags)
	sort.Strings(tags)

	var sb strings.Builder
	sb.WriteString(s.Category)
	sb.WriteString("|")
	sb.WriteString(strings.Join(tags, ","))

	sum := md5.Sum([]byte(sb.String())) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Signatures maps channel id to signature for a snapshot.
// On duplicate channel ids the last record wins (upstream may repeat
// entries across pages).
func Signatures(streams []LiveStream) map[string]string {
	m := make(map[string]string, len(streams))
	for _, s := range streams {
		m[s.ChannelID] = s.Signature()
	}
	return m
}

// EnrichedStream is the published, read-optimized record: the snapshot
// fields plus machine-generated tags. Keyed by channel id.
type EnrichedStream struct {
	LiveStream
	AITags []string `json:"ai_tags"`
}

// Enrich combines a snapshot record with an enrichment result.
func Enrich(s LiveStream, aiTags []string) EnrichedStream {
	return EnrichedStream{LiveStream: s, AITags: aiTags}
}

// EnrichFallback builds an enriched record from declared data only,
// used when the enrichment chunk for this stream failed. The derived
// tag list degrades to category + declared tags so the stream still
// participates in matching.
func EnrichFallback(s LiveStream) EnrichedStream {
	aiTags := make([]string, 0, len(s.Tags)+1)
	if s.Category != "" {
		aiTags = append(aiTags, s.Category)
	}
	aiTags = append(aiTags, s.Tags...)
	return EnrichedStream{LiveStream: s, AITags: aiTags}
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

const enrichSystemPrompt = `You are a tagging assistant for live game broadcasts.
For every stream in the input array, produce descriptive tags that capture the
content, genre, mood, and play style. Use the title, category, and existing tags
as hints. Respond with a JSON object of the form:
{"results":[{"channelId":"...","originalTags":["..."],"aiTags":["..."],"confidence":0.0}]}
Rules:
- return exactly one result per input stream, preserving the channelId
- aiTags must contain between 5 and 12 lowercase tags
- aiTags must include the stream's category and every existing tag, then add
  keywords from the title and genre or mood tags of your own
- confidence is your certainty in [0,1]
- respond with JSON only, no prose`

// Enricher generates descriptive tags for streams via chat completions.
type Enricher struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// EnricherConfig holds the enrichment provider settings.
type EnricherConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewEnricher creates an OpenAI-compatible enrichment provider.
func NewEnricher(cfg *EnricherConfig) *Enricher {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Enricher{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// EnrichBatch tags one chunk of streams in a single completion call.
// The response is validated and reordered to match the input.
func (e *Enricher) EnrichBatch(ctx context.Context, inputs []domain.EnrichmentInput) ([]domain.TagResult, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("marshal enrichment inputs: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enrichSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, parseAPIError("enrichment", err, domain.ErrEnrichmentProviderError)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty enrichment response: %w", domain.ErrEnrichmentProviderError)
	}

	batch, err := parseBatchResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	results, err := alignResults(inputs, batch.Results)
	if err != nil {
		return nil, err
	}
	for i := range results {
		ensureDeclaredTags(&results[i], inputs[i])
	}

	e.logger.Debug("enrichment chunk complete",
		zap.Int("inputs", len(inputs)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return results, nil
}

// parseBatchResponse decodes and validates the model output. Models
// occasionally wrap JSON in a markdown fence despite JSON mode.
func parseBatchResponse(content string) (domain.BatchTagResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var batch domain.BatchTagResult
	if err := json.Unmarshal([]byte(content), &batch); err != nil {
		return domain.BatchTagResult{}, fmt.Errorf("decode enrichment response: %v: %w",
			err, domain.ErrInvalidResponse)
	}
	if err := batch.Validate(); err != nil {
		return domain.BatchTagResult{}, err
	}
	return batch, nil
}

// ensureDeclaredTags restores the category and declared tags into aiTags
// when the model drops them. Downstream matching relies on derived tags
// being a superset of the declared ones, so this holds regardless of how
// well the model followed the prompt.
func ensureDeclaredTags(res *domain.TagResult, in domain.EnrichmentInput) {
	seen := make(map[string]struct{}, len(res.AITags))
	for _, tag := range res.AITags {
		seen[strings.ToLower(tag)] = struct{}{}
	}

	declared := make([]string, 0, len(in.Tags)+1)
	if in.Category != "" {
		declared = append(declared, in.Category)
	}
	declared = append(declared, in.Tags...)

	for _, tag := range declared {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res.AITags = append(res.AITags, key)
	}
	res.OriginalTags = in.Tags
}

// alignResults reorders results to input order, keyed by channel ID.
func alignResults(inputs []domain.EnrichmentInput, results []domain.TagResult) ([]domain.TagResult, error) {
	byChannel := make(map[string]domain.TagResult, len(results))
	for _, res := range results {
		byChannel[res.ChannelID] = res
	}

	ordered := make([]domain.TagResult, 0, len(inputs))
	for _, in := range inputs {
		res, ok := byChannel[in.ChannelID]
		if !ok {
			return nil, fmt.Errorf("enrichment response missing channel %s: %w",
				in.ChannelID, domain.ErrInvalidResponse)
		}
		ordered = append(ordered, res)
	}
	return ordered, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// Client fetches the currently-live set from the upstream catalog API,
// following the next-cursor until the provider signals the last page.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	maxPages   int
	logger     *zap.Logger
}

// Config holds upstream catalog settings.
type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
	MaxPages int
	Timeout  time.Duration
	Logger   *zap.Logger
}

// New creates a catalog client.
func New(cfg *Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		logger:     cfg.Logger,
	}
}

// FetchLive returns the full snapshot of currently-live broadcasts.
// Any transport or decode error mid-pagination is returned as-is so the
// caller can abort the cycle; only an empty next-cursor means a clean end.
func (c *Client) FetchLive(ctx context.Context) ([]domain.LiveStream, error) {
	var streams []domain.LiveStream
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		resp, err := c.fetchPage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		for _, item := range resp.Content.Data {
			streams = append(streams, item.toDomain())
		}

		if resp.Content.Page.Next == "" {
			return streams, nil
		}
		cursor = resp.Content.Page.Next
	}

	c.logger.Warn("catalog pagination hit safety cap",
		zap.Int("max_pages", c.maxPages),
		zap.Int("streams", len(streams)),
	)
	return streams, nil
}

func (c *Client) fetchPage(ctx context.Context, cursor string) (*livesResponse, error) {
	q := url.Values{}
	q.Set("size", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("next", cursor)
	}

	endpoint := c.baseURL + "/open/v1/lives?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch lives: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned %d: %s", resp.StatusCode, body)
	}

	var decoded livesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode lives response: %w", err)
	}
	return &decoded, nil
}

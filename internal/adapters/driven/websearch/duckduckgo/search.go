// Package duckduckgo provides a web search adapter using the DuckDuckGo
// Instant Answer API. No API key is required, which keeps web fallback
// usable out of the box.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
)

// Ensure SearchService implements the interface.
var _ driven.WebSearchService = (*SearchService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.duckduckgo.com"
	DefaultTimeout = 10 * time.Second

	// defaultRate limits requests to one per second with a small burst.
	// The API is unauthenticated, so be a polite client.
	defaultRate  = rate.Limit(1)
	defaultBurst = 3
)

// Config holds configuration for the DuckDuckGo search service.
type Config struct {
	// BaseURL is the API base URL (default: https://api.duckduckgo.com).
	BaseURL string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration

	// RequestsPerSecond overrides the default client-side rate limit.
	RequestsPerSecond float64
}

// SearchService queries the DuckDuckGo Instant Answer API.
type SearchService struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// apiResponse is the subset of the Instant Answer response we consume.
type apiResponse struct {
	Heading       string  `json:"Heading"`
	AbstractText  string  `json:"AbstractText"`
	AbstractURL   string  `json:"AbstractURL"`
	RelatedTopics []topic `json:"RelatedTopics"`
}

// topic is a related result. Category nodes carry nested Topics instead
// of a direct result.
type topic struct {
	Text     string  `json:"Text"`
	FirstURL string  `json:"FirstURL"`
	Topics   []topic `json:"Topics"`
}

// NewSearchService creates a new DuckDuckGo search service.
func NewSearchService(cfg Config) *SearchService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := defaultRate
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &SearchService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		limiter: rate.NewLimiter(limit, defaultBurst),
	}
}

// Search returns up to limit results for the query. The client-side
// rate limiter blocks until a slot is free or the context expires.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]driven.WebResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		s.baseURL+"/?"+params.Encode(),
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: duckduckgo returned status 429", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("duckduckgo error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("duckduckgo error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return collectResults(&apiResp, limit), nil
}

// collectResults flattens the instant answer and related topics into
// at most limit results.
func collectResults(resp *apiResponse, limit int) []driven.WebResult {
	results := make([]driven.WebResult, 0, limit)

	if resp.AbstractText != "" {
		results = append(results, driven.WebResult{
			Title:   resp.Heading,
			URL:     resp.AbstractURL,
			Snippet: resp.AbstractText,
		})
	}

	var walk func(topics []topic)
	walk = func(topics []topic) {
		for _, t := range topics {
			if len(results) >= limit {
				return
			}
			if len(t.Topics) > 0 {
				walk(t.Topics)
				continue
			}
			if t.Text == "" || t.FirstURL == "" {
				continue
			}
			results = append(results, driven.WebResult{
				Title:   topicTitle(t.Text),
				URL:     t.FirstURL,
				Snippet: t.Text,
			})
		}
	}
	walk(resp.RelatedTopics)

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// topicTitle derives a short title from a topic's text. Related topics
// carry "Title - description" strings; use the part before the dash.
func topicTitle(text string) string {
	if title, _, found := strings.Cut(text, " - "); found {
		return title
	}
	return text
}

// Close releases resources.
func (s *SearchService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

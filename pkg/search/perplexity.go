package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikeboe/deep-researcher/pkg/research"
)

const perplexityEndpoint = "https://api.perplexity.ai/search"

// Perplexity calls the Perplexity Search API. The API returns snippets
// only, so full-page mode goes through the configured Fetcher.
type Perplexity struct {
	APIKey   string
	Endpoint string
	fetcher  Fetcher
	client   *http.Client
}

// NewPerplexity constructs a Perplexity search provider.
func NewPerplexity(apiKey string, fetcher Fetcher) *Perplexity {
	return &Perplexity{
		APIKey:   apiKey,
		Endpoint: perplexityEndpoint,
		fetcher:  fetcher,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type perplexityRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type perplexityResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search performs a web search using the Perplexity Search API.
func (p *Perplexity) Search(ctx context.Context, query string, maxResults int, fetchFullPage bool) ([]research.SearchResult, error) {
	jsonData, err := json.Marshal(perplexityRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("perplexity API error (status %d): %s", resp.StatusCode, string(body))
	}

	var pplxResp perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pplxResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]research.SearchResult, 0, len(pplxResp.Results))
	for _, r := range pplxResp.Results {
		results = append(results, research.SearchResult{Title: r.Title, URL: r.URL, Content: r.Snippet})
		if len(results) >= maxResults {
			break
		}
	}

	if fetchFullPage {
		results = fetchFullPages(ctx, p.fetcher, results)
	}
	return results, nil
}

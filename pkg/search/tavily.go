package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mikeboe/deep-researcher/pkg/research"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API. Tavily can return raw page
// content directly, so full-page mode needs no separate fetch pass.
type Tavily struct {
	APIKey   string
	Endpoint string
	client   *http.Client
}

// NewTavily constructs a Tavily search provider.
func NewTavily(apiKey string) *Tavily {
	return &Tavily{
		APIKey:   apiKey,
		Endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Search posts a query to Tavily.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int, fetchFullPage bool) ([]research.SearchResult, error) {
	body := map[string]any{
		"query":               query,
		"api_key":             t.APIKey,
		"max_results":         maxResults,
		"include_raw_content": fetchFullPage,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay each time up to 30 s.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Content    string `json:"content"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("tavily: decoding response: %w", err)
	}

	results := make([]research.SearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		content := r.Content
		if fetchFullPage && r.RawContent != "" {
			content = r.RawContent
		}
		results = append(results, research.SearchResult{Title: r.Title, URL: r.URL, Content: content})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

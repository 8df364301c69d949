package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mikeboe/deep-researcher/pkg/research"
)

// SearXNG queries a self-hosted SearXNG metasearch instance through its
// JSON output format. Snippets only; full-page mode goes through the
// configured Fetcher.
type SearXNG struct {
	BaseURL string
	fetcher Fetcher
	client  *http.Client
}

// NewSearXNG constructs a provider for the instance at baseURL.
func NewSearXNG(baseURL string, fetcher Fetcher) *SearXNG {
	return &SearXNG{
		BaseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Search issues a GET to the instance's /search endpoint.
func (s *SearXNG) Search(ctx context.Context, query string, maxResults int, fetchFullPage bool) ([]research.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng http %d", resp.StatusCode)
	}

	var response struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("searxng: decoding response: %w", err)
	}

	results := make([]research.SearchResult, 0, maxResults)
	for _, r := range response.Results {
		results = append(results, research.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
		if len(results) >= maxResults {
			break
		}
	}

	if fetchFullPage {
		results = fetchFullPages(ctx, s.fetcher, results)
	}
	return results, nil
}

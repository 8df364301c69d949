package search

import (
	"context"
	"fmt"

	"github.com/mikeboe/deep-researcher/pkg/research"
)

// Fetcher retrieves readable text for a URL. Providers that only return
// snippets use it to honor full-page mode.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Options selects and configures a search provider.
type Options struct {
	// API is the provider name: "tavily", "perplexity" or "searxng".
	API              string
	TavilyAPIKey     string
	PerplexityAPIKey string
	SearXNGURL       string
	// Fetcher enables full-page retrieval for providers without native
	// raw-content support. Optional; without it those providers fall
	// back to snippets.
	Fetcher Fetcher
}

// FromConfig constructs the configured search provider. A missing
// credential for the selected provider is a configuration error caught
// here, before any research run starts.
func FromConfig(opts Options) (research.SearchProvider, error) {
	switch opts.API {
	case "tavily", "":
		if opts.TavilyAPIKey == "" {
			return nil, &research.ConfigurationError{Key: "tavily_api_key", Reason: "required for the tavily search API"}
		}
		return NewTavily(opts.TavilyAPIKey), nil
	case "perplexity":
		if opts.PerplexityAPIKey == "" {
			return nil, &research.ConfigurationError{Key: "perplexity_api_key", Reason: "required for the perplexity search API"}
		}
		return NewPerplexity(opts.PerplexityAPIKey, opts.Fetcher), nil
	case "searxng":
		if opts.SearXNGURL == "" {
			return nil, &research.ConfigurationError{Key: "searxng_url", Reason: "required for the searxng search API"}
		}
		return NewSearXNG(opts.SearXNGURL, opts.Fetcher), nil
	default:
		return nil, &research.ConfigurationError{Key: "search_api", Reason: fmt.Sprintf("unknown search API %q", opts.API)}
	}
}

// fetchFullPages replaces snippet content with fetched page text for
// providers without native raw-content support. Fetch failures keep the
// snippet: a dead link should not abort an otherwise-healthy cycle.
func fetchFullPages(ctx context.Context, fetcher Fetcher, results []research.SearchResult) []research.SearchResult {
	if fetcher == nil {
		return results
	}
	for i, r := range results {
		if r.URL == "" {
			continue
		}
		text, err := fetcher.Fetch(ctx, r.URL)
		if err != nil || text == "" {
			continue
		}
		results[i].Content = text
	}
	return results
}

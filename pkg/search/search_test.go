package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mikeboe/deep-researcher/pkg/research"
)

func TestTavilySearch(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "A", "url": "https://a.example", "content": "snippet a", "raw_content": "full page a"},
				{"title": "B", "url": "https://b.example", "content": "snippet b"},
			},
		})
	}))
	defer srv.Close()

	tavily := NewTavily("key")
	tavily.Endpoint = srv.URL

	results, err := tavily.Search(context.Background(), "test query", 3, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["query"] != "test query" {
		t.Errorf("request query = %v", gotBody["query"])
	}
	if gotBody["include_raw_content"] != true {
		t.Errorf("include_raw_content = %v", gotBody["include_raw_content"])
	}

	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Content != "full page a" {
		t.Errorf("full-page mode should prefer raw content, got %q", results[0].Content)
	}
	if results[1].Content != "snippet b" {
		t.Errorf("missing raw content should fall back to snippet, got %q", results[1].Content)
	}
}

func TestTavilySearchMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "1", "url": "u1"},
				{"title": "2", "url": "u2"},
				{"title": "3", "url": "u3"},
			},
		})
	}))
	defer srv.Close()

	tavily := NewTavily("key")
	tavily.Endpoint = srv.URL

	results, err := tavily.Search(context.Background(), "q", 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestTavilySearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tavily := NewTavily("bad-key")
	tavily.Endpoint = srv.URL

	if _, err := tavily.Search(context.Background(), "q", 3, false); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestPerplexitySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer pkey" {
			t.Errorf("auth header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "P", "url": "https://p.example", "snippet": "p snippet"},
			},
		})
	}))
	defer srv.Close()

	p := NewPerplexity("pkey", nil)
	p.Endpoint = srv.URL

	results, err := p.Search(context.Background(), "q", 3, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Content != "p snippet" {
		t.Fatalf("results = %v", results)
	}
}

type stubFetcher struct {
	text string
	err  error
}

func (s stubFetcher) Fetch(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

func TestPerplexityFullPageUsesFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "P", "url": "https://p.example", "snippet": "short snippet"},
			},
		})
	}))
	defer srv.Close()

	p := NewPerplexity("pkey", stubFetcher{text: "entire page text"})
	p.Endpoint = srv.URL

	results, err := p.Search(context.Background(), "q", 3, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Content != "entire page text" {
		t.Errorf("content = %q, want fetched page", results[0].Content)
	}
}

func TestFetchFailureKeepsSnippet(t *testing.T) {
	results := []research.SearchResult{{Title: "t", URL: "https://x.example", Content: "snippet"}}
	out := fetchFullPages(context.Background(), stubFetcher{err: errors.New("timeout")}, results)
	if out[0].Content != "snippet" {
		t.Errorf("content = %q, want original snippet", out[0].Content)
	}
}

func TestSearXNGSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "searx query" {
			t.Errorf("q = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "S1", "url": "https://s1.example", "content": "c1"},
				{"title": "S2", "url": "https://s2.example", "content": "c2"},
			},
		})
	}))
	defer srv.Close()

	s := NewSearXNG(srv.URL, nil)
	results, err := s.Search(context.Background(), "searx query", 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (max)", len(results))
	}
	if results[0].Title != "S1" {
		t.Errorf("title = %q", results[0].Title)
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"tavily with key", Options{API: "tavily", TavilyAPIKey: "k"}, false},
		{"tavily missing key", Options{API: "tavily"}, true},
		{"default is tavily", Options{TavilyAPIKey: "k"}, false},
		{"perplexity with key", Options{API: "perplexity", PerplexityAPIKey: "k"}, false},
		{"perplexity missing key", Options{API: "perplexity"}, true},
		{"searxng with url", Options{API: "searxng", SearXNGURL: "http://localhost:8888"}, false},
		{"searxng missing url", Options{API: "searxng"}, true},
		{"unknown provider", Options{API: "altavista"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := FromConfig(tt.opts)
			if tt.wantErr {
				var ce *research.ConfigurationError
				if !errors.As(err, &ce) {
					t.Fatalf("expected ConfigurationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider == nil {
				t.Fatal("expected provider")
			}
		})
	}
}

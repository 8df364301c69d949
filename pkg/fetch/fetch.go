// Package fetch retrieves full page content for search results, turning
// HTML into markdown the summarizer can digest.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// maxFetchBytes limits how much of a page is read before conversion.
const maxFetchBytes = 256 * 1024

// maxTextRunes limits the converted text handed back to the caller.
const maxTextRunes = 16 * 1024

// Client downloads a URL and returns its readable text.
type Client struct {
	httpClient *http.Client
}

// New creates a fetch client with a modest timeout.
func New() *Client {
	return &Client{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// Fetch downloads the URL, converts HTML to markdown, and truncates the
// result so one page cannot flood the summarizer's input.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errors.New("fetch url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", err
	}

	text := toText(string(body), resp.Header.Get("Content-Type"))
	runes := []rune(text)
	if len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes]) + "\n[TRUNCATED]"
	}
	return text, nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// toText converts an HTML body to markdown. Non-HTML bodies and
// conversion failures pass through as trimmed plain text.
func toText(body, contentType string) string {
	if contentType != "" && !strings.Contains(contentType, "html") {
		return strings.TrimSpace(body)
	}
	markdown, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return strings.TrimSpace(body)
	}
	markdown = blankLines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}

package research

import (
	"fmt"
	"strings"
)

// maxCharsPerSource bounds how much full-page text one source may
// contribute to the summarizer's input.
const maxCharsPerSource = 4000

// formatSources renders one cycle's search results as a numbered,
// URL-tagged citation block. This block becomes the new entry in
// WebResearchResults and the raw source text shown in progress events.
func formatSources(results []SearchResult, fetchFullPage bool) string {
	if len(results) == 0 {
		return "No sources were found for this query."
	}

	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, r := range results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   URL: %s\n", strings.TrimSpace(r.URL))

		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		if fetchFullPage {
			content = truncateRunes(content, maxCharsPerSource)
			fmt.Fprintf(&b, "   Content: %s\n", content)
		} else {
			fmt.Fprintf(&b, "   Snippet: %s\n", content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// sourcesFromResults converts raw search results into citation records
// for the sources_gathered accumulator.
func sourcesFromResults(results []SearchResult) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			Title:      strings.TrimSpace(r.Title),
			URL:        strings.TrimSpace(r.URL),
			RawContent: r.Content,
		})
	}
	return sources
}

// truncateRunes cuts s to at most n runes, marking the cut. Rune-safe so
// multi-byte text is never split mid-character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "... [truncated]"
}

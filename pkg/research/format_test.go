package research

import (
	"strings"
	"testing"
)

func TestFormatSources(t *testing.T) {
	results := []SearchResult{
		{Title: "First", URL: "https://example.com/1", Content: "snippet one"},
		{Title: "", URL: "https://example.com/2", Content: "snippet two"},
	}

	block := formatSources(results, false)
	if !strings.HasPrefix(block, "Sources:") {
		t.Errorf("block should start with header: %q", block)
	}
	if !strings.Contains(block, "1. First") || !strings.Contains(block, "2. Untitled") {
		t.Errorf("entries should be numbered with titles: %q", block)
	}
	if !strings.Contains(block, "URL: https://example.com/1") {
		t.Errorf("block missing URL tag: %q", block)
	}
	if !strings.Contains(block, "Snippet: snippet one") {
		t.Errorf("snippet mode should label snippets: %q", block)
	}
}

func TestFormatSourcesEmpty(t *testing.T) {
	block := formatSources(nil, true)
	if !strings.Contains(block, "No sources were found") {
		t.Errorf("empty result block = %q", block)
	}
}

func TestFormatSourcesCapsFullContent(t *testing.T) {
	long := strings.Repeat("x", maxCharsPerSource+500)
	block := formatSources([]SearchResult{{Title: "Big", URL: "u", Content: long}}, true)
	if !strings.Contains(block, "[truncated]") {
		t.Error("oversized content should be truncated")
	}
	if len(block) > maxCharsPerSource+200 {
		t.Errorf("block length %d exceeds cap", len(block))
	}
}

func TestTruncateRunesIsRuneSafe(t *testing.T) {
	s := strings.Repeat("é", 10)
	got := truncateRunes(s, 5)
	if !strings.HasPrefix(got, strings.Repeat("é", 5)) {
		t.Errorf("truncation split a rune: %q", got)
	}
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("under-limit string modified: %q", got)
	}
}

func TestFinalizeSummaryIdempotent(t *testing.T) {
	state := &SummaryState{
		Topic:          "t",
		RunningSummary: "the summary body",
		SourcesGathered: []Source{
			{Title: "A", URL: "https://a.example"},
			{Title: "B", URL: "https://b.example"},
		},
		ResearchLoopCount: 2,
	}

	first := finalizeSummary(state)
	second := finalizeSummary(state)
	if first.RunningSummary != second.RunningSummary {
		t.Error("finalize is not idempotent on summary text")
	}
	if len(first.SourcesGathered) != len(second.SourcesGathered) {
		t.Error("finalize is not idempotent on sources")
	}

	if !strings.Contains(first.RunningSummary, "### Sources:\n1. A: https://a.example\n2. B: https://b.example") {
		t.Errorf("citation list format wrong:\n%s", first.RunningSummary)
	}
}

func TestFinalizeSummaryNoSources(t *testing.T) {
	state := &SummaryState{Topic: "t", RunningSummary: "body"}
	result := finalizeSummary(state)
	if strings.Contains(result.RunningSummary, "### Sources:") {
		t.Error("no sources section expected when nothing was gathered")
	}
	if result.RunningSummary != "body" {
		t.Errorf("summary = %q", result.RunningSummary)
	}
}

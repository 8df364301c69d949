package research

import "testing"

func TestMergeSources(t *testing.T) {
	existing := []Source{
		{Title: "A", URL: "https://a.example"},
	}
	incoming := []Source{
		{Title: "A renamed", URL: "https://a.example"}, // duplicate URL
		{Title: "B", URL: "https://b.example"},
		{Title: "no url", URL: ""},
	}

	merged := mergeSources(existing, incoming)
	if len(merged) != 2 {
		t.Fatalf("got %d sources, want 2", len(merged))
	}
	if merged[0].Title != "A" {
		t.Errorf("first-seen title must win, got %q", merged[0].Title)
	}
	if merged[1].URL != "https://b.example" {
		t.Errorf("append order broken: %v", merged)
	}

	// Inputs must not be mutated.
	if len(existing) != 1 {
		t.Error("existing slice was modified")
	}
}

func TestMergeSourcesDedupsWithinIncoming(t *testing.T) {
	incoming := []Source{
		{Title: "X", URL: "https://x.example"},
		{Title: "X again", URL: "https://x.example"},
	}
	merged := mergeSources(nil, incoming)
	if len(merged) != 1 {
		t.Fatalf("got %d sources, want 1", len(merged))
	}
	if merged[0].Title != "X" {
		t.Errorf("title = %q", merged[0].Title)
	}
}

func TestAppendResultDoesNotAliasInput(t *testing.T) {
	original := []string{"block one"}
	appended := appendResult(original, "block two")

	if len(appended) != 2 || appended[1] != "block two" {
		t.Fatalf("append result wrong: %v", appended)
	}
	appended[0] = "mutated"
	if original[0] != "block one" {
		t.Error("input slice shares backing array with output")
	}
}

package research

// Source is a single citation record gathered during research.
type Source struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	RawContent string `json:"raw_content,omitempty"`
}

// SummaryState is the mutable record threaded through every node of one
// research run. The engine owns it exclusively for the duration of the
// run; nothing is shared across runs.
type SummaryState struct {
	Topic              string   `json:"topic"`
	SearchQuery        string   `json:"search_query"`
	WebResearchResults []string `json:"web_research_results"`
	SourcesGathered    []Source `json:"sources_gathered"`
	ResearchLoopCount  int      `json:"research_loop_count"`
	RunningSummary     string   `json:"running_summary"`

	// Transient fields reflecting the most recent step, overwritten each
	// cycle and used only for progress reporting.
	LastSearchQuery string `json:"last_search_query"`
	LastSources     string `json:"last_sources"`
	CurrentThinking string `json:"current_thinking"`
}

// NewSummaryState creates the session state for one run.
func NewSummaryState(topic string) *SummaryState {
	return &SummaryState{Topic: topic}
}

// mergeSources unions new sources into existing ones keyed by URL.
// The first-seen entry for a URL wins, so titles and content never flip
// between cycles. The inputs are not modified.
func mergeSources(existing []Source, incoming []Source) []Source {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s.URL] = true
	}
	merged := make([]Source, len(existing), len(existing)+len(incoming))
	copy(merged, existing)
	for _, s := range incoming {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		merged = append(merged, s)
	}
	return merged
}

// appendResult adds one formatted citation block to the accumulated
// research results. Strict append: prior entries are never rewritten.
func appendResult(existing []string, block string) []string {
	out := make([]string, len(existing), len(existing)+1)
	copy(out, existing)
	return append(out, block)
}

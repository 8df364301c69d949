package research

import (
	"context"
	"time"
)

// Config holds the runtime configuration for one research run. It is
// immutable from the engine's perspective: nodes only read it.
type Config struct {
	// MaxWebResearchLoops is the loop budget: the number of
	// search → summarize → reflect cycles executed per run.
	MaxWebResearchLoops int
	// MaxSearchResults caps how many results are requested per query.
	MaxSearchResults int
	// FetchFullPage requests full page content from the search provider
	// instead of snippets only.
	FetchFullPage bool
	// UseToolCalling asks the model for a native tool call instead of a
	// JSON-formatted text response when structured output is needed.
	UseToolCalling bool
	// StripThinkingTokens removes <think>...</think> blocks from model
	// output before parsing.
	StripThinkingTokens bool
	// RequestTimeout bounds every individual model or search call.
	RequestTimeout time.Duration
}

// DefaultConfig mirrors the defaults of the interactive app.
func DefaultConfig() Config {
	return Config{
		MaxWebResearchLoops: 3,
		MaxSearchResults:    3,
		FetchFullPage:       true,
		StripThinkingTokens: true,
		RequestTimeout:      3 * time.Minute,
	}
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchProvider executes a web search. Implementations live in
// pkg/search; the engine selects one at run start and never branches on
// the concrete type afterwards.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int, fetchFullPage bool) ([]SearchResult, error)
}

// Stage identifies which node produced a StepEvent.
type Stage string

const (
	StageGenerateQuery    Stage = "generate_query"
	StageWebResearch      Stage = "web_research"
	StageSummarizeSources Stage = "summarize_sources"
	StageReflectOnSummary Stage = "reflect_on_summary"
	StageFinalizeSummary  Stage = "finalize_summary"
)

// StepEvent is emitted after each node completes. Events are produced in
// strict node-execution order and carry the slice of session state the
// node touched, for progress reporting.
type StepEvent struct {
	Stage     Stage  `json:"stage"`
	Thinking  string `json:"thinking,omitempty"`
	Query     string `json:"query,omitempty"`
	Sources   string `json:"sources,omitempty"`
	Summary   string `json:"summary,omitempty"`
	LoopCount int    `json:"loop_count"`
}

// Result is the terminal output of a successful run: the running summary
// with the citation list appended, plus the deduplicated sources.
type Result struct {
	RunningSummary  string   `json:"running_summary"`
	SourcesGathered []Source `json:"sources_gathered"`
}

package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Engine drives the research loop: generate a query, search the web,
// fold results into the running summary, reflect on what is missing,
// and repeat until the loop budget is spent. One Engine may serve many
// runs; each run owns its own SummaryState and never shares it.
type Engine struct {
	LLM    llms.Model
	Search SearchProvider
	Config Config
	Logger *slog.Logger
}

// NewEngine validates the wiring before any network call is made.
func NewEngine(llm llms.Model, search SearchProvider, cfg Config) (*Engine, error) {
	if llm == nil {
		return nil, &ConfigurationError{Key: "llm", Reason: "language model is not configured"}
	}
	if search == nil {
		return nil, &ConfigurationError{Key: "search", Reason: "search provider is not configured"}
	}
	if cfg.MaxWebResearchLoops < 1 {
		return nil, &ConfigurationError{Key: "max_web_research_loops", Reason: "loop budget must be at least 1"}
	}
	if cfg.MaxSearchResults < 1 {
		cfg.MaxSearchResults = DefaultConfig().MaxSearchResults
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Engine{
		LLM:    llm,
		Search: search,
		Config: cfg,
		Logger: slog.Default(),
	}, nil
}

// Run is one in-flight research run. Events are delivered unbuffered
// and in strict node order; once the channel closes, Err and Result
// report the outcome. A run is not restartable.
type Run struct {
	events chan StepEvent
	done   chan struct{}
	result Result
	err    error
}

// Events returns the run's event stream. The channel closes when the
// run finishes, successfully or not. A failed run ends the stream early
// with no finalize_summary event.
func (r *Run) Events() <-chan StepEvent { return r.events }

// Err reports the run's terminal error, if any. It blocks until the run
// has finished.
func (r *Run) Err() error {
	<-r.done
	return r.err
}

// Result blocks until the run has finished and returns the finalized
// output, or the error that aborted the run.
func (r *Run) Result() (Result, error) {
	<-r.done
	return r.result, r.err
}

// Start begins a research run for the given topic and returns its event
// stream. The caller consumes events synchronously; abandoning the
// stream abandons the run once its context is cancelled.
func (e *Engine) Start(ctx context.Context, topic string) *Run {
	r := &Run{
		events: make(chan StepEvent),
		done:   make(chan struct{}),
	}
	go func() {
		r.result, r.err = e.run(ctx, topic, r)
		close(r.done)
		close(r.events)
	}()
	return r
}

func (r *Run) send(ctx context.Context, ev StepEvent) error {
	select {
	case r.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context, topic string, r *Run) (Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{}, &ConfigurationError{Key: "topic", Reason: "research topic is empty"}
	}

	state := NewSummaryState(topic)
	e.Logger.Info("Starting research run", "topic", topic, "max_loops", e.Config.MaxWebResearchLoops)

	if err := e.generateQuery(ctx, state); err != nil {
		return Result{}, err
	}
	if err := r.send(ctx, StepEvent{
		Stage:    StageGenerateQuery,
		Thinking: state.CurrentThinking,
		Query:    state.SearchQuery,
	}); err != nil {
		return Result{}, err
	}

	// A cycle started is always completed: the budget check happens only
	// after reflection, never between the three nodes of a cycle.
	for {
		if err := e.webResearch(ctx, state); err != nil {
			return Result{}, err
		}
		if err := r.send(ctx, StepEvent{
			Stage:     StageWebResearch,
			Query:     state.LastSearchQuery,
			Sources:   state.LastSources,
			LoopCount: state.ResearchLoopCount,
		}); err != nil {
			return Result{}, err
		}

		if err := e.summarizeSources(ctx, state); err != nil {
			return Result{}, err
		}
		if err := r.send(ctx, StepEvent{
			Stage:     StageSummarizeSources,
			Thinking:  state.CurrentThinking,
			Summary:   state.RunningSummary,
			LoopCount: state.ResearchLoopCount,
		}); err != nil {
			return Result{}, err
		}

		if err := e.reflectOnSummary(ctx, state); err != nil {
			return Result{}, err
		}
		if err := r.send(ctx, StepEvent{
			Stage:     StageReflectOnSummary,
			Thinking:  state.CurrentThinking,
			Query:     state.SearchQuery,
			LoopCount: state.ResearchLoopCount,
		}); err != nil {
			return Result{}, err
		}

		if state.ResearchLoopCount >= e.Config.MaxWebResearchLoops {
			break
		}
	}

	result := finalizeSummary(state)
	e.Logger.Info("Research run complete", "loops", state.ResearchLoopCount, "sources", len(result.SourcesGathered))
	if err := r.send(ctx, StepEvent{
		Stage:     StageFinalizeSummary,
		Summary:   result.RunningSummary,
		LoopCount: state.ResearchLoopCount,
	}); err != nil {
		return Result{}, err
	}
	return result, nil
}

// --- Nodes ---

func (e *Engine) generateQuery(ctx context.Context, state *SummaryState) error {
	sys, user := buildQueryWriterPrompts(state.Topic)
	raw, err := e.generate(ctx, sys, user, &queryTool)
	if err != nil {
		return err
	}

	thinking, text := e.splitThinking(raw)
	var payload queryPayload
	if !parseStructured(text, &payload) || strings.TrimSpace(payload.Query) == "" {
		// Unparseable output: research the raw topic instead of aborting.
		e.Logger.Warn("Query generator returned unstructured output, falling back to topic", "raw_len", len(raw))
		state.SearchQuery = state.Topic
		state.CurrentThinking = ""
		return nil
	}

	state.SearchQuery = strings.TrimSpace(payload.Query)
	state.CurrentThinking = firstNonEmpty(payload.Rationale, thinking)
	e.Logger.Info("Generated search query", "query", state.SearchQuery)
	return nil
}

func (e *Engine) webResearch(ctx context.Context, state *SummaryState) error {
	callCtx, cancel := context.WithTimeout(ctx, e.Config.RequestTimeout)
	defer cancel()

	results, err := e.Search.Search(callCtx, state.SearchQuery, e.Config.MaxSearchResults, e.Config.FetchFullPage)
	if err != nil {
		return wrapCapabilityErr("web search", err)
	}

	block := formatSources(results, e.Config.FetchFullPage)
	state.WebResearchResults = appendResult(state.WebResearchResults, block)
	state.SourcesGathered = mergeSources(state.SourcesGathered, sourcesFromResults(results))
	state.ResearchLoopCount++
	state.LastSearchQuery = state.SearchQuery
	state.LastSources = block

	e.Logger.Info("Web research complete", "query", state.SearchQuery, "results", len(results), "loop", state.ResearchLoopCount)
	return nil
}

func (e *Engine) summarizeSources(ctx context.Context, state *SummaryState) error {
	sys, user := buildSummarizerPrompts(state)
	raw, err := e.generate(ctx, sys, user, nil)
	if err != nil {
		return err
	}

	thinking, text := e.splitThinking(raw)
	if strings.TrimSpace(text) == "" {
		// Keep the previous summary rather than losing it to one bad response.
		e.Logger.Warn("Summarizer returned empty output, retaining previous summary")
		state.CurrentThinking = thinking
		return nil
	}

	state.RunningSummary = strings.TrimSpace(text)
	state.CurrentThinking = thinking
	e.Logger.Info("Summary updated", "length", len(state.RunningSummary))
	return nil
}

func (e *Engine) reflectOnSummary(ctx context.Context, state *SummaryState) error {
	sys, user := buildReflectionPrompts(state)
	raw, err := e.generate(ctx, sys, user, &reflectionTool)
	if err != nil {
		return err
	}

	thinking, text := e.splitThinking(raw)
	var payload reflectionPayload
	parseStructured(text, &payload)

	query := strings.TrimSpace(payload.FollowUpQuery)
	if query == "" {
		// The loop must never stall on a missing query.
		query = fmt.Sprintf("Tell me more about %s", state.Topic)
	}
	state.SearchQuery = query
	state.CurrentThinking = firstNonEmpty(payload.KnowledgeGap, thinking)
	e.Logger.Info("Reflection produced follow-up query", "query", query)
	return nil
}

// --- Model access ---

// queryTool and reflectionTool describe the structured payloads for
// tool-calling mode. In JSON mode the same shapes are requested through
// the prompt instead.
var queryTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        "generate_search_query",
		Description: "Submit a web search query with its rationale",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":     map[string]any{"type": "string", "description": "The web search query"},
				"rationale": map[string]any{"type": "string", "description": "Why this query is relevant"},
			},
			"required": []string{"query"},
		},
	},
}

var reflectionTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        "reflect_on_summary",
		Description: "Report a knowledge gap and the follow-up search query that closes it",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"knowledge_gap":   map[string]any{"type": "string", "description": "What the summary is missing"},
				"follow_up_query": map[string]any{"type": "string", "description": "The next search query"},
			},
			"required": []string{"follow_up_query"},
		},
	},
}

// generate performs one blocking model call. A non-nil tool marks the
// call as expecting structured output; whether that becomes a native
// tool call or JSON mode depends on configuration.
func (e *Engine) generate(ctx context.Context, system, user string, tool *llms.Tool) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.Config.RequestTimeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	opts := []llms.CallOption{llms.WithTemperature(0)}
	if tool != nil {
		if e.Config.UseToolCalling {
			opts = append(opts, llms.WithTools([]llms.Tool{*tool}))
		} else {
			opts = append(opts, llms.WithJSONMode())
		}
	}

	resp, err := e.LLM.GenerateContent(callCtx, messages, opts...)
	if err != nil {
		return "", wrapCapabilityErr("language model", err)
	}
	if len(resp.Choices) == 0 {
		return "", providerErr("language model", errors.New("no choices in response"))
	}

	choice := resp.Choices[0]
	if tool != nil && len(choice.ToolCalls) > 0 && choice.ToolCalls[0].FunctionCall != nil {
		return choice.ToolCalls[0].FunctionCall.Arguments, nil
	}
	return choice.Content, nil
}

// splitThinking separates think-block reasoning from usable text when
// thinking-token stripping is enabled.
func (e *Engine) splitThinking(raw string) (thinking, text string) {
	if !e.Config.StripThinkingTokens {
		return "", raw
	}
	return extractThinking(raw), stripThinkingTokens(raw)
}

func wrapCapabilityErr(capability string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return err
	}
	return providerErr(capability, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

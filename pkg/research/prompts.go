package research

import (
	"fmt"
	"strings"
	"time"
)

const queryWriterSystemPrompt = `You are an expert research assistant generating targeted web search queries.
Your goal is to produce a single query that gathers specific, current information on the user's topic.
The current date is %s. Prefer queries that surface recent sources when recency matters.

Return your response as a JSON object with exactly these keys:
{
    "query": "the actual search query string",
    "rationale": "brief explanation of why this query is relevant"
}`

const summarizerSystemPrompt = `You are an expert research summarizer.
Generate a high-quality summary of the provided web search results.

When EXTENDING an existing summary:
1. Integrate new information seamlessly with what is already there.
2. Keep every fact from the existing summary; never discard prior content.
3. Only add information that is new relative to the existing summary.
4. Do not repeat facts the existing summary already states.

When creating a NEW summary:
1. Highlight the most relevant information related to the topic.
2. Provide a coherent overview of the key points.

Output the summary text directly, with no preamble, no XML tags, and no
meta-commentary about what you did.`

const reflectionSystemPrompt = `You are an expert research assistant analyzing a summary about a topic.
Identify ONE knowledge gap: a detail, technical aspect, or recent development the summary does not cover.
Then write a follow-up web search query that would close that gap.

Return your response as a JSON object with exactly these keys:
{
    "knowledge_gap": "what the summary is missing",
    "follow_up_query": "the next search query"
}`

func buildQueryWriterPrompts(topic string) (string, string) {
	sys := fmt.Sprintf(queryWriterSystemPrompt, time.Now().Format("January 2, 2006"))
	user := fmt.Sprintf("Generate one web search query for this topic:\n%s", topic)
	return sys, user
}

func buildSummarizerPrompts(state *SummaryState) (string, string) {
	var b strings.Builder
	b.WriteString("<Topic>\n")
	b.WriteString(state.Topic)
	b.WriteString("\n</Topic>\n\n")
	if strings.TrimSpace(state.RunningSummary) != "" {
		b.WriteString("<Existing Summary>\n")
		b.WriteString(state.RunningSummary)
		b.WriteString("\n</Existing Summary>\n\n")
	}
	b.WriteString("<New Search Results>\n")
	if n := len(state.WebResearchResults); n > 0 {
		b.WriteString(state.WebResearchResults[n-1])
	}
	b.WriteString("\n</New Search Results>")
	return summarizerSystemPrompt, b.String()
}

func buildReflectionPrompts(state *SummaryState) (string, string) {
	user := fmt.Sprintf("Reflect on this summary of %q:\n\n%s\n\nIdentify a knowledge gap and generate the follow-up query.",
		state.Topic, state.RunningSummary)
	return reflectionSystemPrompt, user
}

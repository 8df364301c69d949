package research

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Some models (qwen3, deepseek-r1) wrap their reasoning in think blocks.
var thinkBlockRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinkingTokens removes <think>...</think> blocks from model output.
func stripThinkingTokens(s string) string {
	return strings.TrimSpace(thinkBlockRegex.ReplaceAllString(s, ""))
}

// extractThinking returns the concatenated contents of any think blocks,
// used to surface the model's reasoning trace in progress events.
func extractThinking(s string) string {
	matches := thinkBlockRegex.FindAllString(s, -1)
	if len(matches) == 0 {
		return ""
	}
	var parts []string
	for _, m := range matches {
		m = strings.TrimPrefix(m, "<think>")
		m = strings.TrimSuffix(m, "</think>")
		if t := strings.TrimSpace(m); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// extractJSONObject locates the outermost matching brace pair in free
// text: everything from the first '{' to the last '}'. This can misparse
// text containing multiple JSON-like fragments, but tolerating malformed
// model output beats rejecting it, so callers fall back rather than fail.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// parseStructured reads a structured payload out of a model response.
// Tier one: the response is the payload (native structured output or a
// tool-call argument string). Tier two: brace-scan the free text and
// parse the extracted object. Returns false when both tiers fail; the
// caller applies its documented raw-text fallback.
func parseStructured(raw string, dst any) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if err := json.Unmarshal([]byte(trimmed), dst); err == nil {
		return true
	}
	obj, ok := extractJSONObject(trimmed)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(obj), dst) == nil
}

// queryPayload is the structured shape returned by the query generator.
type queryPayload struct {
	Query     string `json:"query"`
	Rationale string `json:"rationale"`
}

// reflectionPayload is the structured shape returned by the reflection node.
type reflectionPayload struct {
	KnowledgeGap  string `json:"knowledge_gap"`
	FollowUpQuery string `json:"follow_up_query"`
}

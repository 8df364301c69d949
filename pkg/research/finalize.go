package research

import (
	"fmt"
	"strings"
)

// finalizeSummary assembles the terminal output: the running summary
// with the deduplicated, numbered citation list appended. Pure function
// of the terminal state; calling it twice yields identical output.
func finalizeSummary(state *SummaryState) Result {
	sources := mergeSources(nil, state.SourcesGathered)

	var b strings.Builder
	b.WriteString(strings.TrimSpace(state.RunningSummary))
	if len(sources) > 0 {
		b.WriteString("\n\n### Sources:\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, s.Title, s.URL)
		}
	}

	return Result{
		RunningSummary:  b.String(),
		SourcesGathered: sources,
	}
}

// Package search provides web search providers for the research engine.
//
// Each provider implements research.SearchProvider. The provider is
// selected once at run start via FromConfig; the engine never branches
// on the concrete backend.
//
//   - Tavily: hosted search API, supports returning raw page content
//     natively (no separate fetch pass needed for full-page mode).
//   - Perplexity: hosted search API, snippets only; full-page mode
//     fetches each result URL through a Fetcher.
//   - SearXNG: self-hosted metasearch instance, snippets only; same
//     Fetcher-based full-page enrichment as Perplexity.
package search

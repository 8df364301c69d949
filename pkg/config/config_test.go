package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"LLM_PROVIDER", "LOCAL_LLM", "OLLAMA_BASE_URL",
		"SEARCH_API", "TAVILY_API_KEY",
		"MAX_WEB_RESEARCH_LOOPS", "MAX_SEARCH_RESULTS",
		"FETCH_FULL_PAGE", "USE_TOOL_CALLING", "STRIP_THINKING_TOKENS",
		"PORT",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.LLMProvider != "ollama" {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.LocalLLM != "llama3.2" {
		t.Errorf("LocalLLM = %q", cfg.LocalLLM)
	}
	if cfg.SearchAPI != "tavily" {
		t.Errorf("SearchAPI = %q", cfg.SearchAPI)
	}
	if cfg.MaxWebResearchLoops != 3 {
		t.Errorf("MaxWebResearchLoops = %d", cfg.MaxWebResearchLoops)
	}
	if cfg.MaxSearchResults != 3 {
		t.Errorf("MaxSearchResults = %d", cfg.MaxSearchResults)
	}
	if !cfg.FetchFullPage {
		t.Error("FetchFullPage should default to true")
	}
	if cfg.UseToolCalling {
		t.Error("UseToolCalling should default to false")
	}
	if !cfg.StripThinkingTokens {
		t.Error("StripThinkingTokens should default to true")
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q", cfg.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("SEARCH_API", "searxng")
	t.Setenv("MAX_WEB_RESEARCH_LOOPS", "7")
	t.Setenv("FETCH_FULL_PAGE", "false")
	t.Setenv("USE_TOOL_CALLING", "true")

	cfg := Load()

	if cfg.LLMProvider != "openrouter" {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.SearchAPI != "searxng" {
		t.Errorf("SearchAPI = %q", cfg.SearchAPI)
	}
	if cfg.MaxWebResearchLoops != 7 {
		t.Errorf("MaxWebResearchLoops = %d", cfg.MaxWebResearchLoops)
	}
	if cfg.FetchFullPage {
		t.Error("FetchFullPage should be false")
	}
	if !cfg.UseToolCalling {
		t.Error("UseToolCalling should be true")
	}
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_WEB_RESEARCH_LOOPS", "not-a-number")
	t.Setenv("STRIP_THINKING_TOKENS", "maybe")

	cfg := Load()

	if cfg.MaxWebResearchLoops != 3 {
		t.Errorf("MaxWebResearchLoops = %d, want default 3", cfg.MaxWebResearchLoops)
	}
	if !cfg.StripThinkingTokens {
		t.Error("StripThinkingTokens should fall back to default true")
	}
}

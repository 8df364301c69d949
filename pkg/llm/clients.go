// Package llm constructs the language-model capability for a run from
// the configured provider. Every backend is a langchaingo llms.Model, so
// the research engine never sees provider-specific wire protocols.
package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mikeboe/deep-researcher/pkg/research"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Options selects and configures a model backend.
type Options struct {
	// Provider is "ollama", "lmstudio", "llama_cpp" or "openrouter".
	Provider string
	// Model is the local model name for ollama/lmstudio/llama_cpp.
	Model string

	OllamaBaseURL   string
	LMStudioBaseURL string
	LlamaCppBaseURL string

	OpenRouterAPIKey string
	OpenRouterModel  string
}

// FromConfig builds the llms.Model for the selected provider. LMStudio
// and llama.cpp expose OpenAI-compatible servers, so both map onto the
// openai backend with a custom base URL.
func FromConfig(opts Options) (llms.Model, error) {
	switch opts.Provider {
	case "ollama", "":
		var ollamaOpts []ollama.Option
		ollamaOpts = append(ollamaOpts, ollama.WithModel(defaultStr(opts.Model, "llama3.2")))
		if opts.OllamaBaseURL != "" {
			ollamaOpts = append(ollamaOpts, ollama.WithServerURL(opts.OllamaBaseURL))
		}
		model, err := ollama.New(ollamaOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to init ollama client: %w", err)
		}
		return model, nil

	case "lmstudio":
		return openAICompatible(opts.Model, defaultStr(opts.LMStudioBaseURL, "http://localhost:1234/v1"), "not-needed")

	case "llama_cpp":
		return openAICompatible(opts.Model, defaultStr(opts.LlamaCppBaseURL, "http://127.0.0.1:8080/v1"), "not-needed")

	case "openrouter":
		if opts.OpenRouterAPIKey == "" {
			return nil, &research.ConfigurationError{Key: "openrouter_api_key", Reason: "required for the openrouter provider"}
		}
		return openAICompatible(defaultStr(opts.OpenRouterModel, "stepfun/step-3.5-flash:free"), openRouterBaseURL, opts.OpenRouterAPIKey)

	default:
		return nil, &research.ConfigurationError{Key: "llm_provider", Reason: fmt.Sprintf("unknown LLM provider %q", opts.Provider)}
	}
}

func openAICompatible(model, baseURL, token string) (llms.Model, error) {
	client, err := openai.New(
		openai.WithModel(model),
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init openai-compatible client for %s: %w", baseURL, err)
	}
	return client, nil
}

func defaultStr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

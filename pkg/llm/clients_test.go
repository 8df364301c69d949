package llm

import (
	"errors"
	"testing"

	"github.com/mikeboe/deep-researcher/pkg/research"
)

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"ollama default", Options{}, false},
		{"ollama explicit", Options{Provider: "ollama", Model: "qwen3", OllamaBaseURL: "http://localhost:11434/"}, false},
		{"lmstudio", Options{Provider: "lmstudio", Model: "local-model"}, false},
		{"llama_cpp", Options{Provider: "llama_cpp", Model: "local-model"}, false},
		{"openrouter with key", Options{Provider: "openrouter", OpenRouterAPIKey: "sk-or-test"}, false},
		{"openrouter missing key", Options{Provider: "openrouter"}, true},
		{"unknown provider", Options{Provider: "bedrock"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := FromConfig(tt.opts)
			if tt.wantErr {
				var ce *research.ConfigurationError
				if !errors.As(err, &ce) {
					t.Fatalf("expected ConfigurationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if model == nil {
				t.Fatal("expected a model")
			}
		})
	}
}

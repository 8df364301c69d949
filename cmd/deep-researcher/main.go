package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/deep-researcher/pkg/config"
	"github.com/mikeboe/deep-researcher/pkg/fetch"
	"github.com/mikeboe/deep-researcher/pkg/llm"
	"github.com/mikeboe/deep-researcher/pkg/research"
	"github.com/mikeboe/deep-researcher/pkg/search"
)

var (
	topic    string
	maxLoops int
)

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(handler))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "deep-researcher",
		Short: "A local web research assistant",
		Long:  `deep-researcher runs an iterative research loop on a topic: generate a search query, search the web, summarize the findings, reflect on what is missing, and repeat until the loop budget is spent. The result is a cited report.`,
		Run: func(cmd *cobra.Command, args []string) {

			// Check if topic provided via flags
			topicFlagChanged := cmd.Flags().Changed("topic")

			if !topicFlagChanged {
				// Interactive Mode
				reader := bufio.NewReader(os.Stdin)

				fmt.Print("Enter research topic: ")
				input, _ := reader.ReadString('\n')
				topic = strings.TrimSpace(input)
				if topic == "" {
					slog.Error("Topic cannot be empty")
					os.Exit(1)
				}
			} else if topic == "" {
				slog.Error("--topic flag provided but empty")
				os.Exit(1)
			}

			if cmd.Flags().Changed("loops") {
				cfg.MaxWebResearchLoops = maxLoops
			}

			slog.Info("Starting research", "topic", topic, "loops", cfg.MaxWebResearchLoops, "provider", cfg.LLMProvider, "search", cfg.SearchAPI)

			model, err := llm.FromConfig(llm.Options{
				Provider:         cfg.LLMProvider,
				Model:            cfg.LocalLLM,
				OllamaBaseURL:    cfg.OllamaBaseURL,
				LMStudioBaseURL:  cfg.LMStudioBaseURL,
				LlamaCppBaseURL:  cfg.LlamaCppBaseURL,
				OpenRouterAPIKey: cfg.OpenRouterAPIKey,
				OpenRouterModel:  cfg.OpenRouterModel,
			})
			if err != nil {
				slog.Error("Error initializing LLM provider", "error", err)
				os.Exit(1)
			}

			searcher, err := search.FromConfig(search.Options{
				API:              cfg.SearchAPI,
				TavilyAPIKey:     cfg.TavilyAPIKey,
				PerplexityAPIKey: cfg.PerplexityAPIKey,
				SearXNGURL:       cfg.SearXNGURL,
				Fetcher:          fetch.New(),
			})
			if err != nil {
				slog.Error("Error initializing search provider", "error", err)
				os.Exit(1)
			}

			runCfg := research.DefaultConfig()
			runCfg.MaxWebResearchLoops = cfg.MaxWebResearchLoops
			runCfg.MaxSearchResults = cfg.MaxSearchResults
			runCfg.FetchFullPage = cfg.FetchFullPage
			runCfg.UseToolCalling = cfg.UseToolCalling
			runCfg.StripThinkingTokens = cfg.StripThinkingTokens

			engine, err := research.NewEngine(model, searcher, runCfg)
			if err != nil {
				slog.Error("Error initializing engine", "error", err)
				os.Exit(1)
			}

			run := engine.Start(context.Background(), topic)
			for ev := range run.Events() {
				switch ev.Stage {
				case research.StageGenerateQuery:
					slog.Info("Generated search query", "query", ev.Query)
				case research.StageWebResearch:
					slog.Info("Web search complete", "loop", ev.LoopCount, "query", ev.Query)
				case research.StageSummarizeSources:
					slog.Info("Summary updated", "loop", ev.LoopCount, "length", len(ev.Summary))
				case research.StageReflectOnSummary:
					slog.Info("Reflection complete", "next_query", ev.Query)
				case research.StageFinalizeSummary:
					slog.Info("Research complete")
				}
			}

			result, err := run.Result()
			if err != nil {
				slog.Error("Error running research", "error", err)
				os.Exit(1)
			}

			fmt.Println()
			fmt.Println(result.RunningSummary)

			writeArtifacts(result)
		},
	}

	rootCmd.Flags().StringVarP(&topic, "topic", "t", "", "The research topic")
	rootCmd.Flags().IntVarP(&maxLoops, "loops", "l", 3, "Number of research loops")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

// writeArtifacts saves the report and sources next to the working
// directory, mirroring what the web UI offers as downloads.
func writeArtifacts(result research.Result) {
	reportFilename := fmt.Sprintf("report_%d.md", time.Now().Unix())
	if err := os.WriteFile(reportFilename, []byte(result.RunningSummary), 0644); err != nil {
		slog.Warn("failed to save report locally", "error", err)
	} else {
		slog.Info("Saved report", "filename", reportFilename)
	}

	sourcesData, err := json.MarshalIndent(result.SourcesGathered, "", "  ")
	if err == nil {
		if err := os.WriteFile("sources.json", []byte(sourcesData), 0644); err != nil {
			slog.Error("Failed to save sources.json", "error", err)
		} else {
			slog.Info("Saved sources", "filename", "sources.json")
		}
	}
}

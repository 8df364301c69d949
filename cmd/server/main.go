package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikeboe/deep-researcher/pkg/config"
	"github.com/mikeboe/deep-researcher/pkg/database"
	"github.com/mikeboe/deep-researcher/pkg/fetch"
	"github.com/mikeboe/deep-researcher/pkg/llm"
	"github.com/mikeboe/deep-researcher/pkg/research"
	"github.com/mikeboe/deep-researcher/pkg/search"
	"github.com/mikeboe/deep-researcher/pkg/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	// Database Connection
	db, err := database.NewPostgresDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Schema
	if err := db.InitSchema(context.Background()); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Provider capabilities, resolved once before any job runs
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
		log.Fatalf("Failed to init LLM provider: %v", err)
	}

	searcher, err := search.FromConfig(search.Options{
		API:              cfg.SearchAPI,
		TavilyAPIKey:     cfg.TavilyAPIKey,
		PerplexityAPIKey: cfg.PerplexityAPIKey,
		SearXNGURL:       cfg.SearXNGURL,
		Fetcher:          fetch.New(),
	})
	if err != nil {
		log.Fatalf("Failed to init search provider: %v", err)
	}

	runCfg := research.DefaultConfig()
	runCfg.MaxWebResearchLoops = cfg.MaxWebResearchLoops
	runCfg.MaxSearchResults = cfg.MaxSearchResults
	runCfg.FetchFullPage = cfg.FetchFullPage
	runCfg.UseToolCalling = cfg.UseToolCalling
	runCfg.StripThinkingTokens = cfg.StripThinkingTokens

	// Initialize Service & Handler
	svc := server.NewService(db, model, searcher, runCfg)
	handler := server.NewHandler(svc)

	// Web Server Setup
	r := gin.Default()

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all for dev
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

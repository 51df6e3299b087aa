package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/solomia/solomia/internal/config"
	"github.com/solomia/solomia/internal/embedding"
	"github.com/solomia/solomia/internal/engine"
	"github.com/solomia/solomia/internal/llm"
	"github.com/solomia/solomia/internal/service"
	"github.com/solomia/solomia/internal/storage"
)

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEmbedder builds the embedding provider from config. The API key falls
// back to the provider's conventional environment variable.
func initEmbedder() (embedding.Provider, error) {
	provider := viper.GetString("embedding.provider")
	if provider == "" {
		provider = "gemini"
	}

	return embedding.NewProvider(embedding.Config{
		Provider:  provider,
		APIKey:    apiKey("embedding.api_key", provider),
		Model:     viper.GetString("embedding.model"),
		Dimension: viper.GetInt("embedding.dimension"),
	})
}

// initLLM builds the generative client from config.
func initLLM() (llm.Client, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "gemini"
	}

	return llm.NewClient(llm.Config{
		Provider:    provider,
		APIKey:      apiKey("llm.api_key", provider),
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
	})
}

func apiKey(configKey, provider string) string {
	if key := viper.GetString(configKey); key != "" {
		return key
	}
	switch provider {
	case "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// initPipeline wires the full classification pipeline on top of an open
// store.
func initPipeline(store service.Storage) (*engine.Matcher, *engine.Fallback, *engine.Ingestor, error) {
	embedder, err := initEmbedder()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	client, err := initLLM()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	matcher := engine.NewMatcher(store, embedder, viper.GetFloat64("matcher.threshold"))
	fallback := engine.NewFallback(store, client, embedder)
	ingestor := engine.NewIngestor(store, client, matcher, fallback)

	return matcher, fallback, ingestor, nil
}

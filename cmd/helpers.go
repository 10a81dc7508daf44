package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lumahq/companion/internal/config"
	"github.com/lumahq/companion/internal/db"
	"github.com/lumahq/companion/internal/embeddings"
	"github.com/lumahq/companion/internal/gateway"
	"github.com/lumahq/companion/internal/llm"
	"github.com/lumahq/companion/internal/memory"
	"github.com/lumahq/companion/internal/recall"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `luma init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openDatabase opens the SQLite database under the configured data
// directory, creating the directory if needed.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return db.Open(filepath.Join(cfg.DataDir, "luma.db"))
}

// createProviderFromConfig creates the chat provider, wrapped in a rate
// limiter when one is configured.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.Chat.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.Chat.RequestsPerMinute)
	}
	return provider, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// Returns nil when no embedding provider is configured; semantic recall
// is simply disabled then.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "":
		return nil, nil
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, cfg.Embedding.Model), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.Embedding.Model, os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("provider %s has no embedding support; use openai or ollama", cfg.Embedding.Provider)
	}
}

// buildRecallIndex builds the semantic recall index and loads every
// stored fact into it. Returns nil when no embedder is configured.
func buildRecallIndex(ctx context.Context, cfg *config.Config, memories *memory.Store) (*recall.Index, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, nil
	}

	index, err := recall.NewIndex(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating recall index: %w", err)
	}

	userIDs, err := memories.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	if err := index.LoadFromStore(ctx, memories, userIDs); err != nil {
		return nil, fmt.Errorf("loading recall index: %w", err)
	}
	return index, nil
}

// chatOptionsFromConfig maps the chat section of the config onto
// gateway options.
func chatOptionsFromConfig(cfg *config.Config) gateway.Options {
	opts := gateway.DefaultOptions()
	opts.Model = cfg.Model
	opts.Temperature = cfg.Chat.Temperature
	opts.MaxTokens = cfg.Chat.MaxTokens
	if cfg.Chat.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(cfg.Chat.TimeoutSeconds) * time.Second
	}
	return opts
}

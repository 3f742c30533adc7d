package cmd

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/testmorph/internal/config"
	"github.com/ziadkadry99/testmorph/internal/db"
	"github.com/ziadkadry99/testmorph/internal/embeddings"
	"github.com/ziadkadry99/testmorph/internal/engine"
	"github.com/ziadkadry99/testmorph/internal/knowledge"
	"github.com/ziadkadry99/testmorph/internal/oracle"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `testmorph init` to create a config file", err)
	}
	return cfg, nil
}

// createProviderFromConfig creates the generation oracle based on config settings.
func createProviderFromConfig(cfg *config.Config) (oracle.Provider, error) {
	return oracle.NewProvider(string(cfg.Provider), cfg.Model)
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// This is the shared version used by convert, server, serve, and status.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = config.ProviderLocal
	}
	model := cfg.EmbeddingModel
	if model == "" {
		preset := config.GetPreset(cfg.Provider, cfg.Quality)
		model = preset.EmbeddingModel
	}

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// The local embedder needs no API key and keeps the knowledge
		// base usable offline.
		return embeddings.NewLocalEmbedder(0), nil
	}
}

// openEngine assembles the full conversion engine from config: oracle
// provider, SQLite database, and the persisted knowledge base. The
// returned cleanup closes the database and must always be called.
func openEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	provider, err := createProviderFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating provider: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	cleanup := func() { database.Close() }

	eng := engine.New(provider, database, engine.Config{
		Model:          cfg.Model,
		BaseConfidence: cfg.BaseConfidence,
		PatternBoost:   cfg.PatternBoost,
		AutonomyLevel:  cfg.AutonomyLevel,
	})

	// The knowledge base is optional: conversions degrade gracefully to
	// zero exemplars when the embedder or the on-disk store is missing.
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: knowledge base disabled: %v\n", err)
		return eng, cleanup, nil
	}
	kb, err := knowledge.NewStore(embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: knowledge base disabled: %v\n", err)
		return eng, cleanup, nil
	}
	if err := kb.Load(cfg.KnowledgeDir()); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "No existing knowledge base found (fresh start): %v\n", err)
	}
	eng.SetKnowledge(kb)

	return eng, cleanup, nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/db"
	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/progress"
	"github.com/ziadkadry99/docchat/internal/walker"
)

const embeddingRetryBase = 500 * time.Millisecond

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}

	var embedder embeddings.Embedder
	switch provider {
	case config.ProviderOllama:
		embedder = embeddings.NewOllamaEmbedder(model, 768, os.Getenv("OLLAMA_HOST"))
	default:
		// Providers without native embeddings use OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings (set it in the environment or a .env file)")
		}
		embedder = embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model))
	}
	return embeddings.WithRetry(embedder, cfg.EmbeddingRetries, embeddingRetryBase), nil
}

// newSplitter builds the chunker from config.
func newSplitter(cfg *config.Config) *indexer.Splitter {
	return indexer.NewSplitter(
		indexer.WithChunkSize(cfg.ChunkSize),
		indexer.WithChunkOverlap(cfg.ChunkOverlap),
		indexer.WithSeparator(cfg.Separator),
	)
}

// buildBackend wires ingestion, the conversation engines and the optional
// usage ledger from config. The returned func releases the ledger.
func buildBackend(cfg *config.Config, onProgress indexer.ProgressFunc) (*assistant.Backend, func(), error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	factory := llm.NewFactory(string(cfg.Provider), cfg.RequestsPerMinute)
	opts := assistant.Options{
		AllowedModels: cfg.AllowedModels,
		Concurrency:   cfg.MaxConcurrency,
		OnProgress:    onProgress,
	}

	cleanup := func() {}
	if cfg.UsageDB != "" {
		database, err := db.Open(cfg.UsageDB)
		if err != nil {
			return nil, nil, fmt.Errorf("opening usage ledger: %w", err)
		}
		opts.Usage = db.NewUsageStore(database)
		cleanup = func() { database.Close() }
		logger.Debug("recording usage in %s", database.Path())
	}

	backend := assistant.NewBackend(
		indexer.NewPipeline(embedder, newSplitter(cfg), cfg.SummaryLength),
		chat.NewDocumentEngine(factory,
			chat.WithTopK(cfg.TopK),
			chat.WithCondense(cfg.CondenseQuestion),
		),
		chat.NewGeneralEngine(factory, 0),
		opts,
	)
	return backend, cleanup, nil
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docchat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w\nRun `docchat init` or edit the file", cfgFile, err)
	}
	return cfg, nil
}

// uploadFiles expands args and ingests the matching files into svc,
// printing one line per file. It returns the names that are ready to chat
// with, including ones that were already uploaded.
func uploadFiles(ctx context.Context, svc *assistant.Service, reporter progress.Reporter, args []string) ([]string, error) {
	files, err := walker.Collect(args, walker.WalkerConfig{})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no documents found in %v", args)
	}

	uploads := make([]assistant.Upload, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Path, err)
		}
		uploads = append(uploads, assistant.Upload{Name: f.Name(), Data: data})
	}

	reporter.Start(len(uploads))
	results := svc.ProcessUploads(ctx, uploads)
	reporter.Finish()

	var ready []string
	for _, res := range results {
		switch {
		case res.Skipped:
			fmt.Fprintf(os.Stderr, "  = %s (already processed)\n", res.Name)
			ready = append(ready, res.Name)
		case res.Err != nil:
			fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", res.Name, res.Err)
		default:
			fmt.Fprintf(os.Stderr, "  ✓ %s (%s, %d chunks)\n", res.Name, res.Document.Format, res.Document.Chunks)
			ready = append(ready, res.Name)
		}
	}
	return ready, nil
}

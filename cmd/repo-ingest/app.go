package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bull/repo-ingest/internal/chunking"
	"github.com/bull/repo-ingest/internal/config"
	"github.com/bull/repo-ingest/internal/embedding"
	"github.com/bull/repo-ingest/internal/filter"
	ghclient "github.com/bull/repo-ingest/internal/github"
	"github.com/bull/repo-ingest/internal/indexer"
	"github.com/bull/repo-ingest/internal/logging"
	"github.com/bull/repo-ingest/internal/markdown"
	"github.com/bull/repo-ingest/internal/storage"
)

// app holds the process-wide components shared by every ingestion run.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     storage.Store
	generator *embedding.Generator
	pipeline  *indexer.Pipeline
}

// loadApp resolves configuration from the command's flags and wires the components.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "config", cfg)

	return newApp(cmd.Context(), cfg, logger)
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embCfg := embedding.ProviderConfig{
		Provider:         cfg.Embedding.Provider,
		Model:            cfg.Embedding.Model,
		Dimension:        cfg.Embedding.Dimension,
		CacheDir:         cfg.Embedding.CacheDir,
		HuggingFaceToken: cfg.Embedding.HuggingFaceToken,
		OpenAIAPIKey:     cfg.Embedding.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.Embedding.OpenAIBaseURL,
	}
	generator := embedding.NewGenerator(func() (embedding.Provider, error) {
		return embedding.NewProvider(embCfg)
	}, cfg.Embedding.Dimension, logger)

	client, err := ghclient.NewClient(cfg.GitHub.BaseURL)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	crawler := ghclient.NewCrawler(client, filter.New(cfg.Ingest.MaxFileSize), logger)
	builder := indexer.NewBuilder(crawler,
		chunking.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		markdown.NewOutliner(3),
		cfg.Ingest.MaxContentChars,
		logger)

	pipeline := indexer.NewPipeline(crawler, builder, generator, store, indexer.Config{
		BatchSize: cfg.Ingest.BatchSize,
		Metric:    storage.DefaultMetric,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		generator: generator,
		pipeline:  pipeline,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		store, err := storage.NewQdrantStore(ctx, storage.QdrantConfig{
			Host:   cfg.Qdrant.Host,
			Port:   cfg.Qdrant.Port,
			APIKey: cfg.Qdrant.APIKey,
			UseTLS: cfg.Qdrant.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		return store, nil
	}
}

func (a *app) Close() {
	if err := a.generator.Close(); err != nil {
		a.logger.Warn("failed to release embedding model", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close vector store", "error", err)
	}
}

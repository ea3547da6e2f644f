// Package embedding turns chunk text into fixed-size vectors.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Provider computes embeddings with one concrete model or service.
type Provider interface {
	// EmbedDocuments returns one vector per input text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector size the provider produces.
	Dimension() int
	// Close releases model resources.
	Close() error
}

// ProviderFactory builds a Provider. It is invoked lazily on first use.
type ProviderFactory func() (Provider, error)

// Generator is the process-wide embedding entry point. The underlying model is
// loaded on first use and then shared by every caller; concurrent calls are safe.
// A failed load is not cached, so a later call tries again.
type Generator struct {
	factory   ProviderFactory
	dimension int
	logger    *slog.Logger

	mu       sync.Mutex
	provider Provider
}

// NewGenerator creates a Generator that validates every result against dimension.
// If logger is nil, slog.Default() is used.
func NewGenerator(factory ProviderFactory, dimension int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		factory:   factory,
		dimension: dimension,
		logger:    logger,
	}
}

// Ready loads the model if it is not loaded yet.
func (g *Generator) Ready(ctx context.Context) error {
	_, err := g.load(ctx)
	return err
}

func (g *Generator) load(ctx context.Context) (Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.provider != nil {
		return g.provider, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.logger.Info("loading embedding model")
	p, err := g.factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if g.dimension > 0 && p.Dimension() != g.dimension {
		p.Close()
		return nil, fmt.Errorf("%w: model produces %d dimensions, configured %d",
			ErrInvalidConfig, p.Dimension(), g.dimension)
	}
	if g.dimension <= 0 {
		g.dimension = p.Dimension()
	}

	g.provider = p
	g.logger.Info("embedding model loaded", "dimension", g.dimension)
	return p, nil
}

// Dimension returns the configured vector size.
func (g *Generator) Dimension() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dimension
}

// Embed returns exactly len(texts) vectors, index-aligned with texts.
// Any failure fails the whole batch.
func (g *Generator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	p, err := g.load(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := p.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(texts))
	}
	dim := g.Dimension()
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrEmbeddingFailed, i, len(v), dim)
		}
	}

	return vectors, nil
}

// Close releases the model if it was loaded.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.provider == nil {
		return nil
	}
	err := g.provider.Close()
	g.provider = nil
	return err
}

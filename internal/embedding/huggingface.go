package embedding

import (
	"context"
	"fmt"

	hfembed "github.com/tmc/langchaingo/embeddings/huggingface"
	hfllm "github.com/tmc/langchaingo/llms/huggingface"
)

// HuggingFaceConfig configures the Hugging Face inference API provider.
type HuggingFaceConfig struct {
	Model     string
	Token     string
	Dimension int
}

// HuggingFaceProvider calls the hosted feature-extraction pipeline for a
// sentence-transformers model.
type HuggingFaceProvider struct {
	embedder  *hfembed.Huggingface
	dimension int
}

// NewHuggingFaceProvider creates a provider backed by langchaingo's Hugging Face embedder.
func NewHuggingFaceProvider(cfg HuggingFaceConfig) (*HuggingFaceProvider, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: hugging face token required", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}

	llm, err := hfllm.New(hfllm.WithToken(cfg.Token), hfllm.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("creating hugging face client: %w", err)
	}

	embedder, err := hfembed.NewHuggingface(
		hfembed.WithClient(*llm),
		hfembed.WithModel(cfg.Model),
		hfembed.WithTask("feature-extraction"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hugging face embedder: %w", err)
	}

	return &HuggingFaceProvider{
		embedder:  embedder,
		dimension: cfg.Dimension,
	}, nil
}

// EmbedDocuments embeds texts through the inference API.
func (p *HuggingFaceProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	return p.embedder.EmbedDocuments(ctx, texts)
}

// Dimension returns the configured output size.
func (p *HuggingFaceProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op; the provider holds only an HTTP client.
func (p *HuggingFaceProvider) Close() error {
	return nil
}

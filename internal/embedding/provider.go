package embedding

import "fmt"

// Provider names accepted in configuration.
const (
	ProviderFastEmbed   = "fastembed"
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
)

// DefaultModel is the sentence-transformers model used by every provider that supports it.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// DefaultDimension is the output size of DefaultModel.
const DefaultDimension = 384

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is one of "fastembed" (local ONNX), "huggingface" or "openai".
	Provider string
	// Model is the model name understood by the provider.
	Model string
	// Dimension is the expected output size.
	Dimension int
	// CacheDir is the model cache directory (fastembed only).
	CacheDir string
	// HuggingFaceToken authorizes the Hugging Face inference API.
	HuggingFaceToken string
	// OpenAIAPIKey authorizes the OpenAI embeddings API.
	OpenAIAPIKey string
	// OpenAIBaseURL overrides the API endpoint; empty means the public API.
	OpenAIBaseURL string
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case ProviderFastEmbed, "":
		p, err = NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	case ProviderHuggingFace:
		p, err = NewHuggingFaceProvider(HuggingFaceConfig{
			Model:     cfg.Model,
			Token:     cfg.HuggingFaceToken,
			Dimension: cfg.Dimension,
		})
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

package embedding

import "errors"

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrEmbeddingFailed indicates a provider call or its output was unusable.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrModelUnavailable indicates the embedding model could not be initialized.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

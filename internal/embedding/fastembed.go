//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/tidwall/gjson"
	ort "github.com/yalue/onnxruntime_go"
)

// FastEmbedConfig holds configuration for the FastEmbed provider.
type FastEmbedConfig struct {
	// Model defaults to sentence-transformers/all-MiniLM-L6-v2.
	Model string
	// CacheDir is where ONNX model files are downloaded. Defaults to ./local_cache.
	CacheDir string
	// MaxLength is the maximum input sequence length. Defaults to 512.
	MaxLength int
}

// FastEmbedProvider computes mean-pooled, L2-normalized sentence embeddings
// with a local ONNX model. fastembed downloads the model and initializes the
// ONNX runtime; the session runs here because fastembed's own Embed keeps only
// the first token of last_hidden_state.
type FastEmbedProvider struct {
	model     *fastembed.FlagEmbedding
	tokenizer *tokenizer.Tokenizer
	modelPath string
	dimension int
	mu        sync.RWMutex
}

var fastEmbedModels = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"fast-all-MiniLM-L6-v2":                  fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
}

var fastEmbedDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.AllMiniLML6V2: 384,
	fastembed.BGESmallENV15: 384,
	fastembed.BGEBaseENV15:  768,
}

// NewFastEmbedProvider loads the model, downloading it into the cache on first use.
func NewFastEmbedProvider(cfg FastEmbedConfig) (*FastEmbedProvider, error) {
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	model, ok := fastEmbedModels[name]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported fastembed model %q", ErrInvalidConfig, name)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}

	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing FastEmbed: %w", err)
	}

	modelPath := filepath.Join(cacheDir, string(model))
	tk, err := loadTokenizer(modelPath, maxLength)
	if err != nil {
		_ = flagEmbed.Destroy()
		return nil, fmt.Errorf("loading tokenizer from %s: %w", modelPath, err)
	}

	return &FastEmbedProvider{
		model:     flagEmbed,
		tokenizer: tk,
		modelPath: modelPath,
		dimension: fastEmbedDimensions[model],
	}, nil
}

func loadTokenizer(modelPath string, maxLength int) (*tokenizer.Tokenizer, error) {
	tk, err := pretrained.FromFile(filepath.Join(modelPath, "tokenizer.json"))
	if err != nil {
		return nil, err
	}

	modelConfig, err := os.ReadFile(filepath.Join(modelPath, "config.json"))
	if err != nil {
		return nil, err
	}
	tokenizerConfig, err := os.ReadFile(filepath.Join(modelPath, "tokenizer_config.json"))
	if err != nil {
		return nil, err
	}
	specialTokens, err := os.ReadFile(filepath.Join(modelPath, "special_tokens_map.json"))
	if err != nil {
		return nil, err
	}

	if limit := gjson.GetBytes(tokenizerConfig, "model_max_length").Float(); limit > 0 && limit < float64(maxLength) {
		maxLength = int(limit)
	}
	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxLength,
		Strategy:  tokenizer.LongestFirst,
	})

	padToken := gjson.GetBytes(tokenizerConfig, "pad_token").String()
	if padToken == "" {
		padToken = "[PAD]"
	}
	tk.WithPadding(&tokenizer.PaddingParams{
		Strategy:  *tokenizer.NewPaddingStrategy(),
		Direction: tokenizer.Right,
		PadId:     int(gjson.GetBytes(modelConfig, "pad_token_id").Int()),
		PadToken:  padToken,
	})

	var added []tokenizer.AddedToken
	gjson.ParseBytes(specialTokens).ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			added = append(added, tokenizer.AddedToken{
				Content:    v.Get("content").String(),
				SingleWord: v.Get("single_word").Bool(),
				LStrip:     v.Get("lstrip").Bool(),
				RStrip:     v.Get("rstrip").Bool(),
				Normalized: v.Get("normalized").Bool(),
			})
		} else if v.String() != "" {
			added = append(added, tokenizer.AddedToken{Content: v.String()})
		}
		return true
	})
	tk.AddSpecialTokens(added)

	return tk, nil
}

// EmbedDocuments embeds texts without any query/passage prefix.
func (p *FastEmbedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.model == nil {
		return nil, ErrModelUnavailable
	}
	return p.run(texts)
}

// run tokenizes one batch, reads last_hidden_state and mean-pools it.
func (p *FastEmbedProvider) run(texts []string) ([][]float32, error) {
	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, text := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(text))
	}
	encodings, err := p.tokenizer.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("%w: tokenize: %v", ErrEmbeddingFailed, err)
	}

	batch, seq := len(encodings), encodings[0].Len()
	ids := make([]int64, 0, batch*seq)
	mask := make([]int64, 0, batch*seq)
	typeIDs := make([]int64, 0, batch*seq)
	for _, enc := range encodings {
		ids = appendInt64(ids, enc.GetIds())
		mask = appendInt64(mask, enc.GetAttentionMask())
		typeIDs = appendInt64(typeIDs, enc.GetTypeIds())
	}

	shape := ort.NewShape(int64(batch), int64(seq))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, err
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, err
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, err
	}
	defer typeTensor.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch), int64(seq), int64(p.dimension)))
	if err != nil {
		return nil, err
	}
	defer output.Destroy()

	session, err := ort.NewAdvancedSession(filepath.Join(p.modelPath, "model_optimized.onnx"),
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{idsTensor, maskTensor, typeTensor},
		[]ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		return nil, fmt.Errorf("%w: onnx session: %v", ErrModelUnavailable, err)
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, fmt.Errorf("%w: onnx run: %v", ErrEmbeddingFailed, err)
	}
	return meanPool(output.GetData(), mask, batch, seq, p.dimension)
}

func appendInt64(dst []int64, src []int) []int64 {
	for _, v := range src {
		dst = append(dst, int64(v))
	}
	return dst
}

// Dimension returns the embedding dimension for the loaded model.
func (p *FastEmbedProvider) Dimension() int {
	return p.dimension
}

// Close releases resources held by the ONNX runtime.
func (p *FastEmbedProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil {
		return nil
	}
	err := p.model.Destroy()
	p.model = nil
	return err
}

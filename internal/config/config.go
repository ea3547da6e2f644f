// Package config resolves service settings from defaults, a .env file,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bull/repo-ingest/internal/chunking"
	"github.com/bull/repo-ingest/internal/embedding"
	"github.com/bull/repo-ingest/internal/filter"
	"github.com/bull/repo-ingest/internal/indexer"
)

// Store backends.
const (
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

// EnvPrefix is prepended to every setting's environment variable name.
const EnvPrefix = "REPO_INGEST"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type GitHubConfig struct {
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string `mapstructure:"base_url"`
}

type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type EmbeddingConfig struct {
	Provider         string `mapstructure:"provider"`
	Model            string `mapstructure:"model"`
	Dimension        int    `mapstructure:"dimension"`
	CacheDir         string `mapstructure:"cache_dir"`
	HuggingFaceToken string `mapstructure:"huggingface_token"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	OpenAIBaseURL    string `mapstructure:"openai_base_url"`
}

type IngestConfig struct {
	BatchSize       int   `mapstructure:"batch_size"`
	ChunkSize       int   `mapstructure:"chunk_size"`
	ChunkOverlap    int   `mapstructure:"chunk_overlap"`
	MaxFileSize     int64 `mapstructure:"max_file_size"`
	MaxContentChars int   `mapstructure:"max_content_chars"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds every setting of the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Qdrant    QdrantConfig    `mapstructure:"qdrant"`
	Store     StoreConfig     `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Log       LogConfig       `mapstructure:"log"`
}

// conventional environment names accepted next to the prefixed ones
var aliases = map[string][]string{
	"server.port":                 {"PORT"},
	"qdrant.host":                 {"QDRANT_HOST"},
	"qdrant.port":                 {"QDRANT_PORT"},
	"qdrant.api_key":              {"QDRANT_API_KEY"},
	"embedding.huggingface_token": {"HUGGINGFACE_API_KEY"},
	"embedding.openai_api_key":    {"OPENAI_API_KEY"},
	"embedding.openai_base_url":   {"OPENAI_BASE_URL"},
	"github.base_url":             {"GITHUB_API_URL"},
}

// flag name for each key
var flagNames = map[string]string{
	"server.host":          "host",
	"server.port":          "port",
	"github.base_url":      "github-base-url",
	"qdrant.host":          "qdrant-host",
	"qdrant.port":          "qdrant-port",
	"qdrant.use_tls":       "qdrant-tls",
	"store.backend":        "store",
	"embedding.provider":   "embedding-provider",
	"embedding.model":      "embedding-model",
	"embedding.dimension":  "embedding-dimension",
	"embedding.cache_dir":  "embedding-cache-dir",
	"ingest.batch_size":    "batch-size",
	"ingest.chunk_size":    "chunk-size",
	"ingest.chunk_overlap": "chunk-overlap",
	"log.level":            "log-level",
	"log.format":           "log-format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("github.base_url", "")
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.api_key", "")
	v.SetDefault("qdrant.use_tls", false)
	v.SetDefault("store.backend", BackendQdrant)
	v.SetDefault("embedding.provider", embedding.ProviderFastEmbed)
	v.SetDefault("embedding.model", embedding.DefaultModel)
	v.SetDefault("embedding.dimension", embedding.DefaultDimension)
	v.SetDefault("embedding.cache_dir", "local_cache")
	v.SetDefault("embedding.huggingface_token", "")
	v.SetDefault("embedding.openai_api_key", "")
	v.SetDefault("embedding.openai_base_url", "")
	v.SetDefault("ingest.batch_size", indexer.DefaultBatchSize)
	v.SetDefault("ingest.chunk_size", chunking.DefaultChunkSize)
	v.SetDefault("ingest.chunk_overlap", chunking.DefaultChunkOverlap)
	v.SetDefault("ingest.max_file_size", filter.DefaultMaxFileSize)
	v.SetDefault("ingest.max_content_chars", indexer.DefaultMaxContentChars)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// RegisterFlags adds the command-line overrides understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("host", "0.0.0.0", "HTTP listen host")
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("github-base-url", "", "GitHub API base URL (empty for api.github.com)")
	fs.String("qdrant-host", "localhost", "Qdrant host")
	fs.Int("qdrant-port", 6334, "Qdrant gRPC port")
	fs.Bool("qdrant-tls", false, "connect to Qdrant over TLS")
	fs.String("store", BackendQdrant, "vector store backend (qdrant or memory)")
	fs.String("embedding-provider", embedding.ProviderFastEmbed, "embedding provider (fastembed, huggingface or openai)")
	fs.String("embedding-model", embedding.DefaultModel, "embedding model name")
	fs.Int("embedding-dimension", embedding.DefaultDimension, "embedding vector size")
	fs.String("embedding-cache-dir", "local_cache", "local model cache directory")
	fs.Int("batch-size", indexer.DefaultBatchSize, "chunks per embedding and upsert batch")
	fs.Int("chunk-size", chunking.DefaultChunkSize, "maximum chunk length in characters")
	fs.Int("chunk-overlap", chunking.DefaultChunkOverlap, "characters shared by consecutive chunks")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text or json)")
}

// Load resolves the configuration. Precedence, lowest first: defaults, the
// .env files (only for variables not already set), environment, changed flags.
// With no envFiles, ./.env is read if present. flags may be nil.
func Load(flags *pflag.FlagSet, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range v.AllKeys() {
		names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		names = append(names, aliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if flags != nil {
		for key, name := range flagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		// a missing ./.env is normal outside local development
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port))
	}

	switch c.Store.Backend {
	case BackendQdrant:
		if c.Qdrant.Host == "" {
			errs = append(errs, errors.New("qdrant.host is required for the qdrant backend"))
		}
		if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
			errs = append(errs, fmt.Errorf("qdrant.port must be in 1-65535, got %d", c.Qdrant.Port))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q", BackendQdrant, BackendMemory, c.Store.Backend))
	}

	switch c.Embedding.Provider {
	case embedding.ProviderFastEmbed:
	case embedding.ProviderHuggingFace:
		if c.Embedding.HuggingFaceToken == "" {
			errs = append(errs, errors.New("embedding.huggingface_token is required for the huggingface provider"))
		}
	case embedding.ProviderOpenAI:
		if c.Embedding.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("embedding.openai_api_key is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension))
	}

	if c.Ingest.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.batch_size must be positive, got %d", c.Ingest.BatchSize))
	}
	if c.Ingest.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize))
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap))
	}
	if c.Ingest.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.max_file_size must be positive, got %d", c.Ingest.MaxFileSize))
	}
	if c.Ingest.MaxContentChars <= 0 {
		errs = append(errs, fmt.Errorf("ingest.max_content_chars must be positive, got %d", c.Ingest.MaxContentChars))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// LogValue renders the configuration with secrets masked.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("listen", fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)),
		slog.String("store", c.Store.Backend),
		slog.String("qdrant", fmt.Sprintf("%s:%d", c.Qdrant.Host, c.Qdrant.Port)),
		slog.String("qdrant_api_key", mask(c.Qdrant.APIKey)),
		slog.String("embedding_provider", c.Embedding.Provider),
		slog.String("embedding_model", c.Embedding.Model),
		slog.Int("embedding_dimension", c.Embedding.Dimension),
		slog.String("huggingface_token", mask(c.Embedding.HuggingFaceToken)),
		slog.String("openai_api_key", mask(c.Embedding.OpenAIAPIKey)),
		slog.Int("batch_size", c.Ingest.BatchSize),
		slog.Int("chunk_size", c.Ingest.ChunkSize),
		slog.Int("chunk_overlap", c.Ingest.ChunkOverlap),
	)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

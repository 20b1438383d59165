package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chat RAG service.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Pack      PackConfig      `yaml:"pack"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CorpusConfig describes where chat messages are fetched from.
type CorpusConfig struct {
	Source      string        `yaml:"source"`  // "http" or "file"
	URL         string        `yaml:"url"`     // messages endpoint for the http source
	Pattern     string        `yaml:"pattern"` // doublestar glob for the file source
	PageSize    int           `yaml:"page_size"`
	Timeout     time.Duration `yaml:"timeout"`
	PagesPerSec float64       `yaml:"pages_per_sec"` // 0 = unthrottled
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "local", "openai", "jina", "deepseek", "ollama"
	Model     string `yaml:"model"`       // e.g., "all-minilm"
	BaseURL   string `yaml:"base_url"`    // overrides the provider default
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	Cache     bool   `yaml:"cache"`
	CachePath string `yaml:"cache_path"` // relative paths resolve against the root dir
}

// IndexConfig holds index build configuration.
type IndexConfig struct {
	IncludeMetadata bool `yaml:"include_metadata"` // append user name and timestamp to embedded text
	Stemming        bool `yaml:"stemming"`         // used by the local embedder
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK              int           `yaml:"top_k"`
	MinScoreThreshold float64       `yaml:"min_score_threshold"` // Filter results below this score (0 = disabled)
	CacheSize         int           `yaml:"cache_size"`          // 0 = disabled
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

// PackConfig holds prompt context packing configuration.
type PackConfig struct {
	TokenBudget int    `yaml:"token_budget"`
	Tokenizer   string `yaml:"tokenizer"` // "tiktoken" or "simple"
	Encoding    string `yaml:"encoding"`  // tiktoken encoding name
}

// LLMConfig holds answer synthesis configuration.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Source:   "http",
			URL:      "https://november7-730026606190.europe-west1.run.app/messages",
			Pattern:  "data/**/*.json",
			PageSize: 3500,
			Timeout:  10 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  "local",
			Model:     "all-minilm",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 100,
			Cache:     false,
			CachePath: filepath.Join(".rag", "embeddings.db"),
		},
		Index: IndexConfig{
			IncludeMetadata: false,
			Stemming:        true,
		},
		Retrieve: RetrieveConfig{
			TopK:     10,
			CacheTTL: 5 * time.Minute,
		},
		Pack: PackConfig{
			TokenBudget: 3000,
			Tokenizer:   "simple",
			Encoding:    "cl100k_base",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.1-8b-instant",
			APIKeyEnv:   "GROQ_API_KEY",
			MaxTokens:   500,
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8001",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports configuration values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Corpus.Source {
	case "http":
		if c.Corpus.URL == "" {
			return fmt.Errorf("corpus.url is required for the http source")
		}
		if c.Corpus.PageSize <= 0 {
			return fmt.Errorf("corpus.page_size must be positive, got %d", c.Corpus.PageSize)
		}
	case "file":
		if c.Corpus.Pattern == "" {
			return fmt.Errorf("corpus.pattern is required for the file source")
		}
	default:
		return fmt.Errorf("unsupported corpus source: %s", c.Corpus.Source)
	}

	switch c.Embedding.Provider {
	case "local":
		if c.Embedding.Dimension <= 0 {
			return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
		}
	case "openai", "jina", "deepseek", "ollama":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}

	switch c.Pack.Tokenizer {
	case "simple", "tiktoken":
	default:
		return fmt.Errorf("unsupported pack tokenizer: %s", c.Pack.Tokenizer)
	}

	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnv loads KEY=VALUE pairs from dir/.env into the process environment.
// Variables that are already set win, and a missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EmbeddingCachePath returns the absolute path of the embedding cache database.
func (c *Config) EmbeddingCachePath(dir string) string {
	if filepath.IsAbs(c.Embedding.CachePath) {
		return c.Embedding.CachePath
	}
	return filepath.Join(dir, c.Embedding.CachePath)
}

// EnsureRAGDir ensures the .rag directory exists.
func EnsureRAGDir(dir string) error {
	ragDir := filepath.Join(dir, ".rag")
	return os.MkdirAll(ragDir, 0755)
}

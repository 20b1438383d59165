package cli

import (
	"context"
	"fmt"
	"log/slog"

	"chatrag/config"
	"chatrag/internal/adapter/analyzer"
	"chatrag/internal/adapter/cache"
	"chatrag/internal/adapter/corpus"
	"chatrag/internal/adapter/embedding"
	"chatrag/internal/adapter/llm"
	"chatrag/internal/adapter/store"
	"chatrag/internal/port"
	"chatrag/internal/usecase"
)

type engineOptions struct {
	requireLLM bool
	progress   usecase.ProgressFunc
}

// buildEngine wires every adapter from cfg and runs the startup build. The
// returned cleanup closes the embedding cache and must always be called.
func buildEngine(ctx context.Context, cfg *config.Config, dir string, logger *slog.Logger, opts engineOptions) (*usecase.Engine, func(), error) {
	cleanup := func() {}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	if cfg.Embedding.Cache {
		st, err := openEmbeddingCache(cfg, dir, logger)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { st.Close() }
		embedder = embedding.NewCachedEmbedder(embedder, st, logger)
	}

	counter, err := newTokenCounter(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	var model port.LLM
	client, err := newLLM(cfg)
	switch {
	case err == nil:
		model = client
	case opts.requireLLM:
		return nil, cleanup, err
	default:
		logger.Debug("answering disabled", "reason", err)
	}

	var queryCache *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		queryCache = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
	}

	engine, err := usecase.NewEngine(ctx, usecase.EngineConfig{
		Embedder:     embedder,
		Source:       newSource(cfg, dir, logger),
		LLM:          model,
		TokenCounter: counter,
		Index: usecase.IndexOptions{
			BatchSize:       cfg.Embedding.BatchSize,
			IncludeMetadata: cfg.Index.IncludeMetadata,
		},
		TopK:              cfg.Retrieve.TopK,
		MinScoreThreshold: cfg.Retrieve.MinScoreThreshold,
		TokenBudget:       cfg.Pack.TokenBudget,
		QueryCache:        queryCache,
		Progress:          opts.progress,
		Logger:            logger,
	})
	if err != nil {
		return nil, cleanup, err
	}
	return engine, cleanup, nil
}

// newEmbedder creates the embedder named by embedding.provider.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	ec := cfg.Embedding

	var opts []embedding.Option
	if ec.BaseURL != "" {
		opts = append(opts, embedding.WithBaseURL(ec.BaseURL))
	}
	if ec.Dimension > 0 {
		opts = append(opts, embedding.WithDimension(ec.Dimension))
	}
	if ec.BatchSize > 0 {
		opts = append(opts, embedding.WithBatchSize(ec.BatchSize))
	}

	var (
		embedder port.Embedder
		err      error
	)
	switch ec.Provider {
	case "local":
		embedder = embedding.NewHashEmbedder(ec.Dimension, analyzer.NewTokenizer(cfg.Index.Stemming))
	case "openai":
		embedder, err = embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, opts...)
	case "deepseek":
		embedder, err = embedding.NewDeepSeekEmbedder(ec.APIKeyEnv, ec.Model, opts...)
	case "jina":
		embedder, err = embedding.NewJinaEmbedder(ec.APIKeyEnv, ec.Model, opts...)
	case "ollama":
		embedder = embedding.NewOllamaEmbedder(ec.Model, opts...)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

func openEmbeddingCache(cfg *config.Config, dir string, logger *slog.Logger) (*store.BoltStore, error) {
	if err := config.EnsureRAGDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create .rag directory: %w", err)
	}

	path := cfg.EmbeddingCachePath(dir)
	st, err := store.NewBoltStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	fp := store.ModelFingerprint(cfg.Embedding.Provider+"/"+cfg.Embedding.Model, cfg.Embedding.Dimension)
	result, err := st.Prepare(fp)
	if err != nil {
		st.Close()
		return nil, err
	}
	if result.NeedsClear {
		logger.Info("embedding cache cleared", "reason", result.Reason)
	}
	logger.Debug("embedding cache opened", "path", path)
	return st, nil
}

func newSource(cfg *config.Config, dir string, logger *slog.Logger) port.CorpusSource {
	if cfg.Corpus.Source == "file" {
		return corpus.NewFileSource(dir, cfg.Corpus.Pattern)
	}
	return corpus.NewHTTPSource(corpus.HTTPSourceConfig{
		URL:         cfg.Corpus.URL,
		PageSize:    cfg.Corpus.PageSize,
		Timeout:     cfg.Corpus.Timeout,
		PagesPerSec: cfg.Corpus.PagesPerSec,
		Logger:      logger,
	})
}

func newTokenCounter(cfg *config.Config) (port.TokenCounter, error) {
	if cfg.Pack.Tokenizer == "tiktoken" {
		counter, err := analyzer.NewTiktokenCounter(cfg.Pack.Encoding)
		if err != nil {
			return nil, err
		}
		return counter, nil
	}
	return analyzer.NewTokenizer(false), nil
}

func newLLM(cfg *config.Config) (*llm.Client, error) {
	return llm.NewFromEnv(cfg.LLM.APIKeyEnv, llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
}

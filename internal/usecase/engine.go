package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatrag/internal/adapter/cache"
	"chatrag/internal/adapter/corpus"
	"chatrag/internal/adapter/memstore"
	"chatrag/internal/adapter/retriever"
	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// EngineConfig wires the dependencies of an Engine.
type EngineConfig struct {
	Embedder     port.Embedder
	Source       port.CorpusSource
	LLM          port.LLM // nil disables Answer
	TokenCounter port.TokenCounter

	Index             IndexOptions
	TopK              int
	MinScoreThreshold float64
	TokenBudget       int
	QueryCache        *cache.QueryCache // nil disables result caching

	Progress ProgressFunc
	Logger   *slog.Logger
}

// Engine is the fully initialized service: model loaded, corpus fetched and
// index built. It is immutable and safe for concurrent use.
type Engine struct {
	messages []domain.Message
	index    *memstore.FlatIndex
	embedder port.Embedder
	topK     int
	retrieve *RetrieveUseCase
	answer   *AnswerUseCase
	built    time.Duration
}

// NewEngine loads the model, then the corpus, then builds the index. Any
// failure aborts startup; nothing is retried.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Embedder == nil || cfg.Source == nil {
		return nil, fmt.Errorf("engine needs an embedder and a corpus source")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	start := time.Now()

	if err := cfg.Embedder.Load(ctx); err != nil {
		return nil, err
	}
	logger.Info("embedding model loaded", "model", cfg.Embedder.ModelName(), "dimension", cfg.Embedder.Dimension())

	messages, err := corpus.NewLoader(cfg.Source, logger).Load(ctx)
	if err != nil {
		return nil, err
	}

	built, err := NewIndexUseCase(cfg.Embedder, cfg.Index, logger).Build(ctx, messages, cfg.Progress)
	if err != nil {
		return nil, err
	}

	var r port.Retriever = retriever.NewSemanticRetriever(built.Index, cfg.Embedder)
	if cfg.QueryCache != nil {
		r = cache.NewCachedRetriever(r, cfg.QueryCache)
	}
	retrieveUC := NewRetrieveUseCase(r, cfg.MinScoreThreshold)

	var answerUC *AnswerUseCase
	if cfg.TokenCounter != nil {
		answerUC = NewAnswerUseCase(retrieveUC, NewPackUseCase(cfg.TokenCounter), cfg.LLM, cfg.TokenBudget, logger)
	}

	return &Engine{
		messages: messages,
		index:    built.Index,
		embedder: cfg.Embedder,
		topK:     cfg.TopK,
		retrieve: retrieveUC,
		answer:   answerUC,
		built:    time.Since(start),
	}, nil
}

// Retrieve returns the topK messages most similar to query.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) (domain.QueryResult, error) {
	return e.retrieve.Retrieve(ctx, query, topK)
}

// Answer asks the language model about question using retrieved context.
func (e *Engine) Answer(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if e.answer == nil {
		return nil, fmt.Errorf("%w: answering is not configured", domain.ErrLLMUnavailable)
	}
	return e.answer.Answer(ctx, question, topK)
}

// Prompt renders the prompt Answer would send, without calling the model.
func (e *Engine) Prompt(ctx context.Context, question string, topK int) (domain.PackedContext, string, error) {
	if e.answer == nil {
		return domain.PackedContext{}, "", fmt.Errorf("answering is not configured")
	}
	return e.answer.Prepare(ctx, question, topK)
}

// DefaultTopK is the result count used when a caller does not choose one.
func (e *Engine) DefaultTopK() int {
	return e.topK
}

func (e *Engine) Stats() domain.Stats {
	return domain.Stats{
		Messages:  e.index.Len(),
		Dimension: e.index.Dimension(),
		Model:     e.embedder.ModelName(),
	}
}

// Messages returns the loaded corpus in source order. Callers must not
// modify it.
func (e *Engine) Messages() []domain.Message {
	return e.messages
}

// BuildDuration is how long NewEngine took.
func (e *Engine) BuildDuration() time.Duration {
	return e.built
}

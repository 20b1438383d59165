package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatrag/internal/adapter/memstore"
	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// ProgressFunc reports how many of total messages have been embedded.
type ProgressFunc func(processed, total int)

// IndexUseCase embeds a corpus and builds the similarity index.
type IndexUseCase struct {
	embedder        port.Embedder
	batchSize       int
	includeMetadata bool
	logger          *slog.Logger
}

// IndexOptions tunes an index build.
type IndexOptions struct {
	BatchSize       int  // texts per Embed call, default 100
	IncludeMetadata bool // embed user name and timestamp with the text
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(embedder port.Embedder, opts IndexOptions, logger *slog.Logger) *IndexUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexUseCase{
		embedder:        embedder,
		batchSize:       opts.BatchSize,
		includeMetadata: opts.IncludeMetadata,
		logger:          logger,
	}
}

// IndexResult contains the results of an index build.
type IndexResult struct {
	Index     *memstore.FlatIndex
	Messages  int
	Batches   int
	Dimension int
	Duration  time.Duration
}

// Build embeds messages in corpus order, so index position i is messages[i].
// An empty corpus yields a valid empty index.
func (u *IndexUseCase) Build(ctx context.Context, messages []domain.Message, progress ProgressFunc) (*IndexResult, error) {
	start := time.Now()
	if err := u.embedder.Load(ctx); err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(messages))
	batches := 0
	for i := 0; i < len(messages); i += u.batchSize {
		end := min(i+u.batchSize, len(messages))

		texts := make([]string, end-i)
		for j := range texts {
			texts[j] = EmbedText(messages[i+j], u.includeMetadata)
		}

		vecs, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding messages %d-%d failed: %w", i, end-1, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d messages", len(vecs), len(texts))
		}
		vectors = append(vectors, vecs...)
		batches++

		if progress != nil {
			progress(end, len(messages))
		}
	}

	idx, err := memstore.NewFlatIndex(messages, vectors, u.embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	result := &IndexResult{
		Index:     idx,
		Messages:  idx.Len(),
		Batches:   batches,
		Dimension: idx.Dimension(),
		Duration:  time.Since(start),
	}
	u.logger.Info("index built",
		"messages", result.Messages,
		"dimension", result.Dimension,
		"model", u.embedder.ModelName(),
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// EmbedText is the text embedded for m. With metadata, the user name and
// timestamp follow the message body.
func EmbedText(m domain.Message, includeMetadata bool) string {
	if !includeMetadata {
		return m.Text
	}
	parts := []string{m.Text}
	if m.UserName != "" {
		parts = append(parts, m.UserName)
	}
	if m.Timestamp != "" {
		parts = append(parts, m.Timestamp)
	}
	return strings.Join(parts, " ")
}

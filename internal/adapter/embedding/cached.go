package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"chatrag/internal/port"
)

// CachedEmbedder serves vectors from an EmbeddingCache and only sends misses
// to the wrapped embedder. Cache failures are logged and treated as misses.
type CachedEmbedder struct {
	inner  port.Embedder
	cache  port.EmbeddingCache
	logger *slog.Logger
}

func NewCachedEmbedder(inner port.Embedder, cache port.EmbeddingCache, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{inner: inner, cache: cache, logger: logger}
}

func (c *CachedEmbedder) Load(ctx context.Context) error {
	return c.inner.Load(ctx)
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := c.inner.ModelName()

	cached, err := c.cache.GetMany(model, texts)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "model", model, "error", err)
		cached = make([][]float32, len(texts))
	}

	var missIdx []int
	var missTexts []string
	for i, v := range cached {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		return cached, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}
	for j, i := range missIdx {
		cached[i] = fresh[j]
	}

	if err := c.cache.PutMany(model, missTexts, fresh); err != nil {
		c.logger.Warn("embedding cache write failed", "model", model, "error", err)
	}
	c.logger.Debug("embedded texts", "model", model, "hits", len(texts)-len(missTexts), "misses", len(missTexts))

	return cached, nil
}

func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// HashEmbedder is an offline embedder that feature-hashes analyzer terms into
// a fixed number of signed buckets and L2-normalizes the result. Texts that
// share stemmed terms land close together; it has no notion of synonyms.
type HashEmbedder struct {
	dimension int
	tokenizer port.Tokenizer

	loadOnce sync.Once
	loadErr  error
}

// NewHashEmbedder creates a hashing embedder over tokenizer's terms.
func NewHashEmbedder(dimension int, tokenizer port.Tokenizer) *HashEmbedder {
	return &HashEmbedder{dimension: dimension, tokenizer: tokenizer}
}

func (e *HashEmbedder) Load(ctx context.Context) error {
	e.loadOnce.Do(func() {
		if e.dimension <= 0 {
			e.loadErr = fmt.Errorf("%w: hash embedder needs a positive dimension, got %d", domain.ErrModelUnavailable, e.dimension)
			return
		}
		if e.tokenizer == nil {
			e.loadErr = fmt.Errorf("%w: hash embedder has no tokenizer", domain.ErrModelUnavailable)
		}
	})
	return e.loadErr
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, term := range e.tokenizer.Tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(term))
		sum := h.Sum64()

		bucket := sum % uint64(e.dimension)
		if (sum>>32)&1 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	normalize(vec)
	return vec
}

// normalize scales v to unit length in place; the zero vector stays zero.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}

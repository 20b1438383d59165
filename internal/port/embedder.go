package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Load performs the one-time model initialization. It is safe to call
	// repeatedly; only the first call does any work and later calls return
	// the first call's result.
	Load(ctx context.Context) error

	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// EmbeddingCache stores previously computed vectors keyed by model and text.
type EmbeddingCache interface {
	// GetMany returns the cached vectors for texts; misses are nil entries.
	GetMany(model string, texts []string) ([][]float32, error)

	// PutMany stores vectors for texts.
	PutMany(model string, texts []string, vectors [][]float32) error
}

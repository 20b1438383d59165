package port

import "chatrag/internal/domain"

// SimilarityIndex is a read-only vector index over the loaded corpus.
type SimilarityIndex interface {
	// Search returns the k entries most similar to query, best first.
	Search(query []float32, k int) (domain.QueryResult, error)

	// Len returns the number of indexed messages.
	Len() int

	// Dimension returns the vector size the index was built with.
	Dimension() int
}

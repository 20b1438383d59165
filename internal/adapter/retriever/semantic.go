package retriever

import (
	"context"
	"fmt"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// SemanticRetriever embeds the query and scans the similarity index.
type SemanticRetriever struct {
	index    port.SimilarityIndex
	embedder port.Embedder
}

func NewSemanticRetriever(index port.SimilarityIndex, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
	}
}

// Search returns up to k messages ranked by cosine similarity to query.
// An empty index yields an empty result without embedding the query.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) (domain.QueryResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if r.index.Len() == 0 {
		return domain.QueryResult{}, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(embeddings))
	}

	results, err := r.index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}

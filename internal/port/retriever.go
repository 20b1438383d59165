package port

import (
	"context"

	"chatrag/internal/domain"
)

// Retriever defines the interface for searching indexed messages.
type Retriever interface {
	// Search returns the k messages most similar to the query.
	Search(ctx context.Context, query string, k int) (domain.QueryResult, error)
}

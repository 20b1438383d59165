package usecase

import (
	"context"
	"fmt"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	retriever         port.Retriever
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(retriever port.Retriever, minScoreThreshold float64) *RetrieveUseCase {
	return &RetrieveUseCase{
		retriever:         retriever,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve returns min(topK, corpus size) messages for query, best first.
// Only a configured score threshold can return fewer.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) (domain.QueryResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	results, err := u.retriever.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}
	return results, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results domain.QueryResult) domain.QueryResult {
	filtered := make(domain.QueryResult, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ScoredMessageResult is a flattened result for CLI and HTTP output.
type ScoredMessageResult struct {
	Rank      int     `json:"rank"`
	ID        string  `json:"id"`
	UserID    string  `json:"user_id,omitempty"`
	UserName  string  `json:"user_name"`
	Timestamp string  `json:"timestamp"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
}

// Flatten converts results for output.
func Flatten(results domain.QueryResult) []ScoredMessageResult {
	out := make([]ScoredMessageResult, len(results))
	for i, r := range results {
		out[i] = ScoredMessageResult{
			Rank:      i + 1,
			ID:        r.Message.ID,
			UserID:    r.Message.UserID,
			UserName:  r.Message.UserName,
			Timestamp: r.Message.Timestamp,
			Text:      r.Message.Text,
			Score:     r.Score,
		}
	}
	return out
}

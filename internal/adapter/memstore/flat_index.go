package memstore

import (
	"fmt"
	"math"
	"sort"

	"chatrag/internal/domain"
)

// FlatIndex is an exact cosine-similarity index over a fixed corpus. It is
// built once and never mutated, so concurrent searches need no locking.
type FlatIndex struct {
	messages  []domain.Message
	vectors   [][]float32 // unit length, or all zeros
	dimension int
}

// NewFlatIndex builds an index where vectors[i] embeds messages[i]. Vectors
// are copied and normalized; messages are referenced, not copied.
func NewFlatIndex(messages []domain.Message, vectors [][]float32, dimension int) (*FlatIndex, error) {
	if len(messages) != len(vectors) {
		return nil, fmt.Errorf("got %d messages but %d vectors", len(messages), len(vectors))
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dimension)
		}
		normalized[i] = unit(v)
	}

	return &FlatIndex{
		messages:  messages,
		vectors:   normalized,
		dimension: dimension,
	}, nil
}

// unit returns a normalized copy of v.
func unit(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Search scores every message against query and returns the k best, highest
// first. Equal scores keep corpus order. k larger than Len returns all
// messages; k <= 0 is an error.
func (idx *FlatIndex) Search(query []float32, k int) (domain.QueryResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", domain.ErrInvalidArgument, len(query), idx.dimension)
	}
	if len(idx.vectors) == 0 {
		return domain.QueryResult{}, nil
	}

	q := unit(query)
	scored := make(domain.QueryResult, len(idx.vectors))
	for i, v := range idx.vectors {
		scored[i] = domain.ScoredMessage{
			Message:  &idx.messages[i],
			Position: i,
			Score:    dot(q, v),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k:k], nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Len returns the number of indexed messages.
func (idx *FlatIndex) Len() int {
	return len(idx.vectors)
}

func (idx *FlatIndex) Dimension() int {
	return idx.dimension
}

// Message returns the message at corpus position pos.
func (idx *FlatIndex) Message(pos int) (*domain.Message, bool) {
	if pos < 0 || pos >= len(idx.messages) {
		return nil, false
	}
	return &idx.messages[pos], true
}

package memstore

import (
	"errors"
	"math/rand"
	"testing"

	"chatrag/internal/domain"
)

func messages(n int) []domain.Message {
	msgs := make([]domain.Message, n)
	for i := range msgs {
		msgs[i] = domain.Message{ID: string(rune('a' + i%26)), Text: "m"}
	}
	return msgs
}

func TestFlatIndex_RanksByCosine(t *testing.T) {
	msgs := messages(3)
	vecs := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{2, 2, 0}, // normalized on insert
	}
	idx, err := NewFlatIndex(msgs, vecs, 3)
	if err != nil {
		t.Fatalf("NewFlatIndex failed: %v", err)
	}

	res, err := idx.Search([]float32{1, 0.1, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	wantPos := []int{0, 2, 1}
	for i, sm := range res {
		if sm.Position != wantPos[i] {
			t.Errorf("rank %d: expected position %d, got %d", i, wantPos[i], sm.Position)
		}
		if sm.Message != &msgs[sm.Position] {
			t.Errorf("rank %d: result should reference the corpus message", i)
		}
	}
	for i := 1; i < len(res); i++ {
		if res[i].Score > res[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, res[i].Score, res[i-1].Score)
		}
	}
}

func TestFlatIndex_TiesKeepCorpusOrder(t *testing.T) {
	vecs := [][]float32{{0, 1}, {1, 0}, {1, 0}, {1, 0}}
	idx, err := NewFlatIndex(messages(4), vecs, 2)
	if err != nil {
		t.Fatal(err)
	}

	for run := 0; run < 20; run++ {
		res, err := idx.Search([]float32{1, 0}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if res[0].Position != 1 || res[1].Position != 2 {
			t.Fatalf("run %d: expected positions [1 2], got [%d %d]", run, res[0].Position, res[1].Position)
		}
	}
}

func TestFlatIndex_KBounds(t *testing.T) {
	idx, err := NewFlatIndex(messages(3), [][]float32{{1, 0}, {0, 1}, {1, 1}}, 2)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		k       int
		want    int
		wantErr bool
	}{
		{k: 1, want: 1},
		{k: 3, want: 3},
		{k: 10, want: 3},
		{k: 0, wantErr: true},
		{k: -2, wantErr: true},
	}

	for _, tt := range tests {
		res, err := idx.Search([]float32{1, 0}, tt.k)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("k=%d: expected ErrInvalidArgument, got %v", tt.k, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("k=%d: unexpected error %v", tt.k, err)
			continue
		}
		if len(res) != tt.want {
			t.Errorf("k=%d: expected %d results, got %d", tt.k, tt.want, len(res))
		}
		seen := make(map[int]bool)
		for _, sm := range res {
			if seen[sm.Position] {
				t.Errorf("k=%d: duplicate position %d", tt.k, sm.Position)
			}
			seen[sm.Position] = true
		}
	}
}

func TestFlatIndex_Empty(t *testing.T) {
	idx, err := NewFlatIndex(nil, nil, 4)
	if err != nil {
		t.Fatalf("empty corpus should build, got %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected Len 0, got %d", idx.Len())
	}
	res, err := idx.Search([]float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(res) != 0 {
		t.Errorf("expected no results, got %d", len(res))
	}
}

func TestFlatIndex_ZeroQuery(t *testing.T) {
	idx, err := NewFlatIndex(messages(3), [][]float32{{1, 0}, {0, 1}, {1, 1}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	res, err := idx.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("zero query should not fail, got %v", err)
	}
	if len(res) != 2 || res[0].Position != 0 || res[1].Position != 1 {
		t.Errorf("zero query should return the first k positions, got %+v", res)
	}
	for _, sm := range res {
		if sm.Score != 0 {
			t.Errorf("expected score 0 for zero query, got %v", sm.Score)
		}
	}
}

func TestFlatIndex_BuildErrors(t *testing.T) {
	if _, err := NewFlatIndex(messages(2), [][]float32{{1, 0}}, 2); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := NewFlatIndex(messages(1), [][]float32{{1, 0, 0}}, 2); err == nil {
		t.Error("expected error for dimension mismatch")
	}
	if _, err := NewFlatIndex(nil, nil, 0); err == nil {
		t.Error("expected error for zero dimension")
	}

	idx, _ := NewFlatIndex(messages(1), [][]float32{{1, 0}}, 2)
	if _, err := idx.Search([]float32{1, 0, 0}, 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for wrong query dimension, got %v", err)
	}
}

func TestFlatIndex_DoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}
	if _, err := NewFlatIndex(messages(1), [][]float32{v}, 2); err != nil {
		t.Fatal(err)
	}
	if v[0] != 3 || v[1] != 4 {
		t.Errorf("input vector was mutated: %v", v)
	}
}

func TestFlatIndex_Message(t *testing.T) {
	msgs := messages(2)
	idx, _ := NewFlatIndex(msgs, [][]float32{{1}, {1}}, 1)

	if m, ok := idx.Message(1); !ok || m != &msgs[1] {
		t.Errorf("expected message at position 1")
	}
	if _, ok := idx.Message(2); ok {
		t.Error("expected no message past the end")
	}
	if idx.Dimension() != 1 {
		t.Errorf("expected dimension 1, got %d", idx.Dimension())
	}
}

func BenchmarkFlatIndex_Search(b *testing.B) {
	const n, dim = 3500, 384
	rng := rand.New(rand.NewSource(1))

	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = make([]float32, dim)
		for j := range vecs[i] {
			vecs[i][j] = rng.Float32() - 0.5
		}
	}
	idx, err := NewFlatIndex(messages(n), vecs, dim)
	if err != nil {
		b.Fatal(err)
	}
	query := vecs[42]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.Search(query, 10); err != nil {
			b.Fatal(err)
		}
	}
}

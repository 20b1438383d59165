package store

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

type storedVector struct {
	Vector []float32 `json:"v"`
}

// cacheKey addresses a vector by model and exact text.
func cacheKey(model, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

// GetMany implements port.EmbeddingCache. The result has one entry per text;
// misses and unreadable entries are nil.
func (s *BoltStore) GetMany(model string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for i, text := range texts {
			data := b.Get(cacheKey(model, text))
			if data == nil {
				continue
			}
			var stored storedVector
			if err := json.Unmarshal(data, &stored); err != nil {
				continue // treat as a miss; the next PutMany overwrites it
			}
			out[i] = stored.Vector
		}
		return nil
	})
	return out, err
}

// PutMany implements port.EmbeddingCache.
func (s *BoltStore) PutMany(model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("got %d texts but %d vectors", len(texts), len(vectors))
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for i, text := range texts {
			data, err := json.Marshal(storedVector{Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := b.Put(cacheKey(model, text), data); err != nil {
				return err
			}
		}
		return nil
	})
}

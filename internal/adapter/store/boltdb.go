package store

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
)

// BoltStore is the on-disk embedding cache. It holds derived vectors only;
// the similarity index itself is always rebuilt in memory.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Count returns the number of cached vectors.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketVectors).Stats().KeyN
		return nil
	})
	return n, err
}

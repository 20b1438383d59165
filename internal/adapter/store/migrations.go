package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyFingerprint   = []byte("model_fingerprint")
)

// SchemaInfo stores the schema version and the fingerprint of the model whose
// vectors the cache holds.
type SchemaInfo struct {
	Version     int    `json:"version"`
	Fingerprint string `json:"fingerprint"`
}

// GetSchemaInfo retrieves the current schema info from the database.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if v := b.Get(keySchemaVersion); v != nil {
			if err := json.Unmarshal(v, &info.Version); err != nil {
				return fmt.Errorf("corrupt schema version: %w", err)
			}
		}
		if v := b.Get(keyFingerprint); v != nil {
			info.Fingerprint = string(v)
		}
		return nil
	})
	return &info, err
}

// SetSchemaInfo stores the schema info in the database.
func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)

		versionData, err := json.Marshal(info.Version)
		if err != nil {
			return err
		}
		if err := b.Put(keySchemaVersion, versionData); err != nil {
			return err
		}
		return b.Put(keyFingerprint, []byte(info.Fingerprint))
	})
}

// ModelFingerprint identifies an embedding model configuration. Vectors from
// different fingerprints are not comparable.
func ModelFingerprint(model string, dimension int) string {
	relevant := struct {
		Model     string `json:"model"`
		Dimension int    `json:"dimension"`
	}{model, dimension}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsInit  bool
	NeedsClear bool
	OldVersion int
	NewVersion int
	Reason     string
}

// CheckMigration compares the stored schema against the running one.
func (s *BoltStore) CheckMigration(fingerprint string) (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsInit = true
		result.Reason = "initializing schema version"
	case info.Version != CurrentSchemaVersion:
		result.NeedsClear = true
		result.Reason = fmt.Sprintf("cache written by schema v%d, running v%d", info.Version, CurrentSchemaVersion)
	case info.Fingerprint != fingerprint:
		result.NeedsClear = true
		result.Reason = "embedding model changed"
	}

	return result, nil
}

// Prepare brings the cache in line with fingerprint, clearing stale vectors.
// It returns the migration check so callers can report what happened.
func (s *BoltStore) Prepare(fingerprint string) (*MigrationResult, error) {
	result, err := s.CheckMigration(fingerprint)
	if err != nil {
		return nil, err
	}
	if result.NeedsClear {
		if err := s.Clear(); err != nil {
			return nil, fmt.Errorf("failed to clear embedding cache: %w", err)
		}
	}
	if result.NeedsInit || result.NeedsClear {
		info := &SchemaInfo{Version: CurrentSchemaVersion, Fingerprint: fingerprint}
		if err := s.SetSchemaInfo(info); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Clear removes all cached vectors. Schema info is kept.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketVectors); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketVectors)
		return err
	})
}

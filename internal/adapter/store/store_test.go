package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "embeddings.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestEmbeddingCache_RoundTrip(t *testing.T) {
	st := openTestStore(t)

	texts := []string{"dinner at eight", "flight to Paris"}
	vecs := [][]float32{{0.6, 0.8}, {1, 0}}
	if err := st.PutMany("m1", texts, vecs); err != nil {
		t.Fatalf("PutMany failed: %v", err)
	}

	got, err := st.GetMany("m1", []string{"flight to Paris", "unknown", "dinner at eight"})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0] == nil || got[0][0] != 1 {
		t.Errorf("expected cached vector for 'flight to Paris', got %v", got[0])
	}
	if got[1] != nil {
		t.Errorf("expected miss for unknown text, got %v", got[1])
	}
	if got[2] == nil || got[2][1] != 0.8 {
		t.Errorf("expected cached vector for 'dinner at eight', got %v", got[2])
	}

	n, err := st.Count()
	if err != nil || n != 2 {
		t.Errorf("expected 2 cached vectors, got %d (err %v)", n, err)
	}
}

func TestEmbeddingCache_KeyedByModel(t *testing.T) {
	st := openTestStore(t)

	if err := st.PutMany("m1", []string{"hello"}, [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}
	got, err := st.GetMany("m2", []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != nil {
		t.Errorf("vector of another model should not be returned, got %v", got[0])
	}
}

func TestEmbeddingCache_LengthMismatch(t *testing.T) {
	st := openTestStore(t)

	if err := st.PutMany("m1", []string{"a", "b"}, [][]float32{{1}}); err == nil {
		t.Error("expected error for mismatched texts and vectors")
	}
}

func TestPrepare(t *testing.T) {
	st := openTestStore(t)
	fp1 := ModelFingerprint("all-minilm", 384)
	fp2 := ModelFingerprint("nomic-embed-text", 768)

	res, err := st.Prepare(fp1)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if !res.NeedsInit {
		t.Errorf("expected fresh store to need init, got %+v", res)
	}

	if err := st.PutMany("all-minilm", []string{"x"}, [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}

	res, err = st.Prepare(fp1)
	if err != nil {
		t.Fatal(err)
	}
	if res.NeedsInit || res.NeedsClear {
		t.Errorf("same fingerprint should be a no-op, got %+v", res)
	}
	if n, _ := st.Count(); n != 1 {
		t.Errorf("expected cache to be kept, got %d entries", n)
	}

	res, err = st.Prepare(fp2)
	if err != nil {
		t.Fatal(err)
	}
	if !res.NeedsClear {
		t.Errorf("model change should clear the cache, got %+v", res)
	}
	if n, _ := st.Count(); n != 0 {
		t.Errorf("expected empty cache after model change, got %d entries", n)
	}

	info, err := st.GetSchemaInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Version != CurrentSchemaVersion || info.Fingerprint != fp2 {
		t.Errorf("unexpected schema info %+v", info)
	}
}

func TestModelFingerprint(t *testing.T) {
	a := ModelFingerprint("all-minilm", 384)
	if a != ModelFingerprint("all-minilm", 384) {
		t.Error("fingerprint should be stable")
	}
	if a == ModelFingerprint("all-minilm", 768) {
		t.Error("dimension should change the fingerprint")
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}
}

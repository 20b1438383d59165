package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker_MatchesAndSorts(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"data/b.json",
		"data/2024/a.json",
		"data/a.json",
		"data/notes.txt",
		"data/tmp/skip.json",
		"other.json",
	} {
		writeFile(t, root, rel)
	}

	w := NewWalker([]string{"data/**/*.json"}, []string{"data/tmp/"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"data/2024/a.json", "data/a.json", "data/b.json"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %+v", len(want), len(files), files)
	}
	for i, f := range files {
		if f.RelPath != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], f.RelPath)
		}
		if !filepath.IsAbs(f.Path) {
			t.Errorf("expected absolute path, got %s", f.Path)
		}
	}
}

func TestWalker_DefaultIncludesEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x.json")
	writeFile(t, root, "y/z.json")

	files, err := NewWalker(nil, nil).Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %d", len(files))
	}
}

func TestWalker_MissingRoot(t *testing.T) {
	_, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for missing root")
	}
}

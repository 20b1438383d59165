package corpus

import (
	"context"
	"fmt"
	"path/filepath"

	"chatrag/internal/adapter/fs"
	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// FileSource reads JSON snapshots of the messages API from disk. Files are
// read in lexical order of their path relative to root.
type FileSource struct {
	root    string
	pattern string
	walker  *fs.Walker
}

func NewFileSource(root, pattern string) *FileSource {
	return &FileSource{
		root:    root,
		pattern: pattern,
		walker:  fs.NewWalker([]string{pattern}, nil),
	}
}

func (s *FileSource) Name() string {
	return filepath.Join(s.root, s.pattern)
}

func (s *FileSource) Fetch(ctx context.Context) ([]port.RawRecord, error) {
	files, err := s.walker.Walk(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files match %s", domain.ErrSourceUnavailable, s.Name())
	}

	var all []port.RawRecord
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		data, err := fs.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		records, err := decodeSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, f.RelPath, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

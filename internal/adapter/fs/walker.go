package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker finds files under a root whose slash-separated relative path matches
// one of the include globs and none of the exclude globs.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

type FileInfo struct {
	Path    string // absolute
	RelPath string // slash-separated, relative to the walk root
	ModTime int64
	Size    int64
}

// Walk returns matching files sorted by relative path, so repeated walks over
// an unchanged tree yield the same order.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.shouldInclude(relPath) || w.shouldExclude(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{
			Path:    path,
			RelPath: relPath,
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

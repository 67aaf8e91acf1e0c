// Package fsloader discovers files under a directory tree for batch
// ingestion, using glob include/exclude patterns. It is grounded on
// hypnagonia-rag's internal/adapter/fs.Walker. Unlike a ports.Loader
// (which decodes one input into one document), a Walker enumerates
// candidate inputs; the caller feeds each discovered path through the
// engine's Ingest call individually, using whichever ports.Loader
// (textloader, pdfloader, ...) accepts it.
package fsloader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// File describes one discovered file.
type File struct {
	Path    string
	ModTime int64
	Size    int64
}

// Walker enumerates files under a root directory matching include
// globs and not matching exclude globs. Patterns follow doublestar
// syntax ("**/*.pdf", "**/node_modules/**", ...).
type Walker struct {
	includes []string
	excludes []string
}

// New returns a Walker. An empty includes list defaults to "**/*"
// (every file).
func New(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{includes: includes, excludes: excludes}
}

// Walk returns every file under root that matches the Walker's include
// patterns and none of its exclude patterns.
func (w *Walker) Walk(root string) ([]File, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("fsloader: resolving root %s: %w", root, err)
	}

	var files []File
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if info.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, File{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fsloader: walking %s: %w", root, err)
	}
	return files, nil
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

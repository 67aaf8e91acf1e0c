// Package textloader implements a plain-text ports.Loader, adapted
// from the teacher's internal/normalisers/plaintext.Normaliser: the
// same MIME-by-extension fallback role, generalized from a
// domain.Document-producing normaliser into a ports.LoadedDocument
// loader. A form-feed character (0x0C) is treated as a page break,
// since some plain-text exports use it that way; content without any
// form feed becomes a single page.
package textloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/folio-eng/folio/internal/ports"
)

var _ ports.Loader = (*Loader)(nil)

var extensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".log":  true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".json": true,
	".xml":  true,
	".html": true,
	".htm":  true,
}

// Loader loads plain text files into a ports.LoadedDocument.
type Loader struct{}

// New returns a ready-to-use Loader.
func New() *Loader {
	return &Loader{}
}

// Supports reports whether input's extension is a recognized text
// format. It is the fallback loader: implementations composing several
// loaders should try more specific ones first.
func (l *Loader) Supports(input string) bool {
	return extensions[strings.ToLower(filepath.Ext(input))]
}

// Load reads input from disk and splits it into pages on form-feed
// characters.
func (l *Loader) Load(_ context.Context, input string) (*ports.LoadedDocument, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("textloader: reading %s: %w", input, err)
	}

	rawPages := strings.Split(string(data), "\f")
	pages := make([]ports.Page, len(rawPages))
	for i, text := range rawPages {
		pages[i] = ports.Page{Index: i, Text: text}
	}

	return &ports.LoadedDocument{
		Name:  extractTitle(input),
		Pages: pages,
	}, nil
}

func extractTitle(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}

// Package ports declares the external-collaborator interfaces the
// engine depends on but does not implement itself: document loading,
// chunking, embedding, and contextual prefix generation. The
// interface-per-concern layout follows the teacher's
// internal/core/ports/driven package.
package ports

import "context"

// Page is a single page of text extracted from a loaded document. Page
// index is zero-based; loaders that cannot determine page boundaries
// (e.g. plain text) emit a single page at index 0.
type Page struct {
	Index int
	Text  string
}

// LoadedDocument is the normalized result of a Loader reading an input.
type LoadedDocument struct {
	Name  string
	Pages []Page
}

// Loader decides whether it can handle a given input and, if so,
// decodes it into a LoadedDocument. Implementations may reject an
// input they cannot parse even if Supports returned true, surfacing a
// loader fault.
type Loader interface {
	Supports(input string) bool
	Load(ctx context.Context, input string) (*LoadedDocument, error)
}

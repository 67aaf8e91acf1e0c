package ports

import "context"

// Embedder turns text into a dense vector for cosine similarity search.
// Implementations that talk to a remote model may return an error on
// network or model failure; the engine surfaces these as embedder
// faults rather than retrying internally.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// PrefixFunc generates a short contextual prefix for a chunk, given the
// document it came from, its page (nil if unknown), and its raw text.
// A PrefixFunc may fail; the ingest orchestrator falls back to its
// heuristic contextualizer on error or on an empty sanitized result.
type PrefixFunc func(ctx context.Context, doc *LoadedDocument, page *int, chunkText string) (string, error)

package ports

import "context"

// ChunkConfig bounds how a Chunker splits a document. MaxTokensPerChunk
// and OverlapTokens are expressed in tokens; the engine converts to a
// character budget at roughly 3.6 characters per token when a Chunker
// implementation only understands character counts.
type ChunkConfig struct {
	MaxTokensPerChunk int
	OverlapTokens     int
}

// CharBudget converts the token-oriented configuration to an
// approximate character budget, using the ~3.6 chars/token ratio the
// engine assumes when a chunker needs a character count instead of a
// token count.
func (c ChunkConfig) CharBudget() (maxChars, overlapChars int) {
	const charsPerToken = 3.6
	maxChars = int(float64(c.MaxTokensPerChunk) * charsPerToken)
	overlapChars = int(float64(c.OverlapTokens) * charsPerToken)
	return maxChars, overlapChars
}

// RawChunk is one chunk produced by a Chunker, prior to prefixing,
// storage, or embedding.
type RawChunk struct {
	SourceID string
	Page     *int
	Text     string
}

// Chunker splits a loaded document into an ordered stream of chunks.
// The engine treats the returned slice's order as insertion order.
type Chunker interface {
	Chunk(ctx context.Context, sourceID string, doc *LoadedDocument, cfg ChunkConfig) ([]RawChunk, error)
}

// Package chunker provides a fixed-size, overlapping-window
// ports.Chunker, adapted from the teacher's
// internal/postprocessors/chunker.Processor: the same functional-options
// construction and forward-sliding window loop, generalized from
// splitting a single document.Content string into splitting each page
// of a ports.LoadedDocument independently (so a chunk never spans a
// page boundary) and reporting the page each chunk came from.
package chunker

import (
	"context"

	"github.com/folio-eng/folio/internal/ports"
)

var _ ports.Chunker = (*Processor)(nil)

// DefaultMaxTokensPerChunk and DefaultOverlapTokens mirror the
// specification's documented configuration defaults.
const (
	DefaultMaxTokensPerChunk = 650
	DefaultOverlapTokens     = 80
)

// Processor splits each page of a document into fixed-size,
// overlapping chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in
// characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a Processor with the given options, falling back to the
// specification's token defaults converted to characters when no chunk
// size or overlap is given.
func New(opts ...Option) *Processor {
	defaultCfg := ports.ChunkConfig{
		MaxTokensPerChunk: DefaultMaxTokensPerChunk,
		OverlapTokens:     DefaultOverlapTokens,
	}
	defaultChunkSize, defaultOverlap := defaultCfg.CharBudget()

	p := &Processor{
		chunkSize: defaultChunkSize,
		overlap:   defaultOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	return p
}

// Chunk splits doc into fixed-size, overlapping chunks per page. A
// positive cfg.MaxTokensPerChunk or cfg.OverlapTokens overrides the
// Processor's own chunk size or overlap; a zero field keeps the
// Processor's value.
func (p *Processor) Chunk(_ context.Context, sourceID string, doc *ports.LoadedDocument, cfg ports.ChunkConfig) ([]ports.RawChunk, error) {
	chunkSize, overlap := p.chunkSize, p.overlap
	cfgSize, cfgOverlap := cfg.CharBudget()
	if cfg.MaxTokensPerChunk > 0 {
		chunkSize = cfgSize
	}
	if cfg.OverlapTokens > 0 {
		overlap = cfgOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	var out []ports.RawChunk
	for _, pg := range doc.Pages {
		page := pg.Index
		out = append(out, splitPage(sourceID, &page, pg.Text, chunkSize, overlap)...)
	}
	return out, nil
}

func splitPage(sourceID string, page *int, content string, chunkSize, overlap int) []ports.RawChunk {
	if content == "" {
		return nil
	}
	contentLen := len(content)

	var chunks []ports.RawChunk
	start := 0
	for start < contentLen {
		end := start + chunkSize
		if end > contentLen {
			end = contentLen
		}
		chunks = append(chunks, ports.RawChunk{
			SourceID: sourceID,
			Page:     page,
			Text:     content[start:end],
		})

		if chunkSize <= overlap {
			break
		}
		start += chunkSize - overlap
	}
	return chunks
}

package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/folio-eng/folio/internal/store"
)

// DocumentSlice is the result of FetchDocument: a contiguous run of a
// document's chunks joined into a single text, plus the page range it
// spans.
type DocumentSlice struct {
	SourceID    string
	DisplayName string
	Text        string
	StartPage   *int
	EndPage     *int
	ChunkIDs    []string
}

// maxFetchExpand bounds the neighbor window FetchDocument will assemble
// around an anchor match.
const maxFetchExpand = 8

// FetchDocument resolves a cursor into a source's chunks and returns
// the resulting slice as one joined text. The cursor is resolved in
// this order: a non-empty anchor substring match, then an explicit
// startPage, then (if neither is given) the whole document. An anchor
// match expands into a ±expand neighbor window; startPage takes every
// chunk from that page onward, and neither it nor the whole-document
// case uses expand. maxChars, if given, truncates the result.
func (e *Engine) FetchDocument(ctx context.Context, sourceID string, startPage *int, anchor string, expand int, maxChars *int) (*DocumentSlice, error) {
	if expand < 0 || expand > maxFetchExpand {
		panic("engine: FetchDocument: expand must be within [0, 8]")
	}
	if startPage != nil && *startPage < 0 {
		panic("engine: FetchDocument: startPage must be non-negative")
	}
	if maxChars != nil && *maxChars <= 0 {
		panic("engine: FetchDocument: maxChars must be positive")
	}

	source, err := e.store.FetchSource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch document: looking up source %q: %w", sourceID, err)
	}
	if source == nil {
		return nil, fmt.Errorf("engine: fetch document: %q: %w", sourceID, ErrSourceNotFound)
	}
	displayName := source.DisplayName

	chunks, err := e.resolveCursor(ctx, sourceID, startPage, anchor, expand)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &DocumentSlice{SourceID: sourceID, DisplayName: displayName}, nil
	}

	slice := buildDocumentSlice(sourceID, displayName, chunks)
	if maxChars != nil {
		slice.Text = truncateChars(slice.Text, *maxChars)
	}
	return slice, nil
}

func (e *Engine) resolveCursor(ctx context.Context, sourceID string, startPage *int, anchor string, expand int) ([]store.Chunk, error) {
	trimmedAnchor := strings.TrimSpace(anchor)
	switch {
	case trimmedAnchor != "":
		ordinal, err := e.store.FindAnchorOrdinal(ctx, sourceID, trimmedAnchor)
		if err != nil {
			return nil, fmt.Errorf("engine: fetch document: locating anchor: %w", err)
		}
		if ordinal == nil {
			return nil, nil
		}
		chunks, err := e.store.FetchNeighbors(ctx, sourceID, *ordinal, expand)
		if err != nil {
			return nil, fmt.Errorf("engine: fetch document: fetching neighbors: %w", err)
		}
		return chunks, nil

	case startPage != nil:
		chunks, err := e.store.FetchChunksFromPage(ctx, sourceID, *startPage)
		if err != nil {
			return nil, fmt.Errorf("engine: fetch document: fetching from page %d: %w", *startPage, err)
		}
		return chunks, nil

	default:
		chunks, err := e.store.FetchAllChunks(ctx, sourceID)
		if err != nil {
			return nil, fmt.Errorf("engine: fetch document: fetching all chunks: %w", err)
		}
		return chunks, nil
	}
}

func buildDocumentSlice(sourceID, displayName string, chunks []store.Chunk) *DocumentSlice {
	chunkIDs := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	var startPage, endPage *int
	for i, c := range chunks {
		chunkIDs[i] = c.ID
		texts[i] = c.Content
		if c.Page == nil {
			continue
		}
		if startPage == nil || *c.Page < *startPage {
			startPage = c.Page
		}
		if endPage == nil || *c.Page > *endPage {
			endPage = c.Page
		}
	}

	return &DocumentSlice{
		SourceID:    sourceID,
		DisplayName: displayName,
		Text:        joinParagraphs(texts),
		StartPage:   startPage,
		EndPage:     endPage,
		ChunkIDs:    chunkIDs,
	}
}

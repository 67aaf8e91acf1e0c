package engine

import (
	"context"
	"fmt"

	"github.com/folio-eng/folio/internal/logger"
	"github.com/folio-eng/folio/internal/rank"
	"github.com/folio-eng/folio/internal/store"
	"github.com/folio-eng/folio/internal/vector"
)

// Snippet is one bare BM25 hit as returned by Search, before neighbor
// expansion.
type Snippet struct {
	SourceID string
	Excerpt  string
	Page     *int
	BM25     float64
}

// Passage is a windowed slice of a document assembled around a matched
// chunk, as returned by SearchWithContext and SearchHybrid.
type Passage struct {
	SourceID string
	ChunkIDs []string
	Text     string
	Excerpt  string
	Page     *int
	BM25     float64
	Cosine   *float64
	Fused    float64
}

// probeMultiplier and probeFloor bound how many raw FTS hits the
// context-expanding searches pull before deduplicating overlapping
// windows: max(limit * probeMultiplier, probeFloor).
const (
	probeMultiplier = 6
	probeFloor      = 60
)

// Search runs a bare BM25 query and returns up to limit hits ordered by
// ascending BM25 (lower is better), with no neighbor expansion.
func (e *Engine) Search(ctx context.Context, query string, sourceFilter *string, limit int) ([]Snippet, error) {
	if limit <= 0 {
		panic("engine: Search: limit must be positive")
	}

	logger.Section("Search")
	logger.Debug("Query: %q, limit: %d", query, limit)

	hits, err := e.store.FTSHits(ctx, query, sourceFilter, limit)
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("engine: search: %w", err)
	}

	out := make([]Snippet, len(hits))
	for i, h := range hits {
		out[i] = Snippet{SourceID: h.SourceID, Excerpt: h.Excerpt, Page: h.Page, BM25: h.BM25}
	}
	logger.Info("Search: %d hits", len(out))
	return out, nil
}

// SearchWithContext runs a BM25-only query and expands each surviving
// hit into a windowed passage of ±expand neighboring chunks. Hits whose
// window already overlaps an earlier passage are skipped so no chunk
// contributes to more than one passage. It emits at most limit
// passages.
func (e *Engine) SearchWithContext(ctx context.Context, query string, sourceFilter *string, limit, expand int) ([]Passage, error) {
	if limit <= 0 {
		panic("engine: SearchWithContext: limit must be positive")
	}
	if expand < 0 {
		panic("engine: SearchWithContext: expand must be non-negative")
	}

	logger.Section("Search With Context")
	logger.Debug("Query: %q, limit: %d, expand: %d", query, limit, expand)

	probe := limit * probeMultiplier
	if probe < probeFloor {
		probe = probeFloor
	}
	logger.Debug("Probe size: %d", probe)

	hits, err := e.store.FTSHits(ctx, query, sourceFilter, probe)
	if err != nil {
		logger.Warn("Search with context failed: %v", err)
		return nil, fmt.Errorf("engine: search with context: %w", err)
	}
	logger.Debug("Raw hits: %d", len(hits))

	used := make(map[int64]bool)
	var passages []Passage
	for _, hit := range hits {
		if used[hit.Ordinal] {
			continue
		}
		neighbors, err := e.store.FetchNeighbors(ctx, hit.SourceID, hit.Ordinal, expand)
		if err != nil {
			logger.Warn("Fetching neighbors failed: %v", err)
			return nil, fmt.Errorf("engine: search with context: fetching neighbors: %w", err)
		}
		if len(neighbors) == 0 || windowOverlaps(used, neighbors) {
			continue
		}
		for _, n := range neighbors {
			used[n.Ordinal] = true
		}

		passages = append(passages, windowedPassage(hit, neighbors))
		if len(passages) == limit {
			break
		}
	}
	logger.Info("Search with context: %d passages", len(passages))
	return passages, nil
}

// SearchHybrid runs the same windowed retrieval as SearchWithContext,
// but ranks candidates by a weighted fusion of normalized BM25 and
// cosine similarity to the embedded query, weight wBM25 controlling the
// lexical signal's share. When no embedder is configured, or a chunk
// has no stored vector, its passage ranks on the BM25 signal alone.
func (e *Engine) SearchHybrid(ctx context.Context, query string, sourceFilter *string, limit, expand int, wBM25 float64) ([]Passage, error) {
	if limit <= 0 {
		panic("engine: SearchHybrid: limit must be positive")
	}
	if expand < 0 {
		panic("engine: SearchHybrid: expand must be non-negative")
	}

	logger.Section("Search Hybrid")
	logger.Debug("Query: %q, limit: %d, expand: %d, wBM25: %.2f", query, limit, expand, wBM25)

	probe := limit * probeMultiplier
	if probe < probeFloor {
		probe = probeFloor
	}
	logger.Debug("Probe size: %d", probe)

	hits, err := e.store.FTSHits(ctx, query, sourceFilter, probe)
	if err != nil {
		logger.Warn("Hybrid search failed: %v", err)
		return nil, fmt.Errorf("engine: hybrid search: %w", err)
	}
	logger.Debug("Raw hits: %d", len(hits))
	if len(hits) == 0 {
		logger.Debug("No hits, returning no results")
		return nil, nil
	}

	var queryVec []float32
	var vectors map[string]store.VectorRow
	if e.embedder != nil {
		logger.Debug("Embedding query for cosine fusion")
		queryVec, err = e.embedder.Embed(ctx, query)
		if err != nil {
			logger.Warn("Embedding query failed: %v", err)
			return nil, fmt.Errorf("engine: hybrid search: embedding query: %w", err)
		}
		ids := make([]string, len(hits))
		for i, h := range hits {
			ids[i] = h.ChunkID
		}
		vectors, err = e.store.FetchVectors(ctx, ids)
		if err != nil {
			logger.Warn("Fetching vectors failed: %v", err)
			return nil, fmt.Errorf("engine: hybrid search: fetching vectors: %w", err)
		}
		logger.Debug("Vectors found for %d/%d hits", len(vectors), len(hits))
	} else {
		logger.Debug("No embedder configured, ranking on BM25 alone")
	}

	minBM25, maxBM25 := hits[0].BM25, hits[0].BM25
	for _, h := range hits {
		if h.BM25 < minBM25 {
			minBM25 = h.BM25
		}
		if h.BM25 > maxBM25 {
			maxBM25 = h.BM25
		}
	}

	candidates := make([]rank.Candidate, len(hits))
	for i, h := range hits {
		var cosine *float64
		if row, ok := vectors[h.ChunkID]; ok && len(queryVec) > 0 {
			c := vector.Cosine(queryVec, row.Vector)
			cosine = &c
		}
		nb := rank.NormBM25(minBM25, maxBM25, h.BM25)
		var nc *float64
		if cosine != nil {
			v := rank.NormCosine(*cosine)
			nc = &v
		}
		candidates[i] = rank.Candidate{
			Ordinal: h.Ordinal,
			BM25:    h.BM25,
			Cosine:  cosine,
			Fused:   rank.Fuse(nb, nc, wBM25),
			Payload: h,
		}
	}
	rank.Sort(candidates)

	used := make(map[int64]bool)
	var passages []Passage
	for _, c := range candidates {
		hit := c.Payload.(store.FTSHit)
		if used[hit.Ordinal] {
			continue
		}
		neighbors, err := e.store.FetchNeighbors(ctx, hit.SourceID, hit.Ordinal, expand)
		if err != nil {
			logger.Warn("Fetching neighbors failed: %v", err)
			return nil, fmt.Errorf("engine: hybrid search: fetching neighbors: %w", err)
		}
		if len(neighbors) == 0 || windowOverlaps(used, neighbors) {
			continue
		}
		for _, n := range neighbors {
			used[n.Ordinal] = true
		}

		passage := windowedPassage(hit, neighbors)
		passage.Cosine = c.Cosine
		passage.Fused = c.Fused
		passages = append(passages, passage)
		if len(passages) == limit {
			break
		}
	}
	logger.Info("Hybrid search: %d passages", len(passages))
	return passages, nil
}

// windowOverlaps reports whether any chunk of a candidate window already
// belongs to an emitted passage.
func windowOverlaps(used map[int64]bool, neighbors []store.Chunk) bool {
	for _, n := range neighbors {
		if used[n.Ordinal] {
			return true
		}
	}
	return false
}

// windowedPassage joins a hit's neighboring chunks into a single
// passage, keeping the hit's own excerpt and BM25 score and reporting
// the window's first page.
func windowedPassage(hit store.FTSHit, neighbors []store.Chunk) Passage {
	chunkIDs := make([]string, len(neighbors))
	texts := make([]string, len(neighbors))
	var firstPage *int
	for i, n := range neighbors {
		chunkIDs[i] = n.ID
		texts[i] = n.Content
		if firstPage == nil && n.Page != nil {
			firstPage = n.Page
		}
	}

	return Passage{
		SourceID: hit.SourceID,
		ChunkIDs: chunkIDs,
		Text:     joinParagraphs(texts),
		Excerpt:  hit.Excerpt,
		Page:     firstPage,
		BM25:     hit.BM25,
	}
}

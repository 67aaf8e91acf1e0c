package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/folio-eng/folio/internal/logger"
	"github.com/folio-eng/folio/internal/ports"
	"github.com/folio-eng/folio/internal/sanitize"
)

// Ingest synchronously loads, chunks, and stores input under sourceID,
// replacing any chunks previously stored for that id. When
// useContextualPrefix is true, each chunk's prefix is computed by the
// heuristic contextualizer; otherwise chunks are stored unprefixed.
// Ingest does not embed chunks; use IngestAsync or BackfillEmbeddings
// for that.
func (e *Engine) Ingest(ctx context.Context, sourceID, input, displayName string, cfg ports.ChunkConfig, useContextualPrefix bool) error {
	logger.Section("Ingest")
	logger.Debug("Source: %q, input: %q, contextual prefix: %t", sourceID, input, useContextualPrefix)

	loader := e.loaderFor(input)
	if loader == nil {
		logger.Warn("No loader supports %q", input)
		return fmt.Errorf("engine: ingest %q: %w", input, ErrNoLoader)
	}

	doc, err := loader.Load(ctx, input)
	if err != nil {
		logger.Warn("Loading %q failed: %v", input, err)
		return fmt.Errorf("engine: ingest %q: loading: %w", input, err)
	}
	if e.filter != nil {
		doc = e.filter.Filter(doc)
	}
	logger.Debug("Loaded %d pages", len(doc.Pages))

	if err := e.store.DeleteChunksForSource(ctx, sourceID); err != nil {
		logger.Warn("Clearing existing chunks for %q failed: %v", sourceID, err)
		return fmt.Errorf("engine: ingest %q: clearing existing chunks: %w", input, err)
	}
	if err := e.store.InsertSource(ctx, sourceID, input, displayName, len(doc.Pages), 0); err != nil {
		logger.Warn("Registering source %q failed: %v", sourceID, err)
		return fmt.Errorf("engine: ingest %q: registering source: %w", input, err)
	}

	rawChunks, err := e.chunker.Chunk(ctx, sourceID, doc, cfg)
	if err != nil {
		logger.Warn("Chunking %q failed: %v", input, err)
		return fmt.Errorf("engine: ingest %q: chunking: %w", input, err)
	}
	logger.Debug("Chunked into %d chunks", len(rawChunks))

	for _, rc := range rawChunks {
		prefix := ""
		if useContextualPrefix {
			prefix = heuristicPrefix(doc, rc.Page, rc.Text)
		}
		ftsContent := combineAugmented(prefix, rc.Text)
		if _, err := e.store.InsertChunk(ctx, sourceID, rc.Page, rc.Text, prefix, ftsContent); err != nil {
			logger.Warn("Storing chunk for %q failed: %v", sourceID, err)
			return fmt.Errorf("engine: ingest %q: storing chunk: %w", input, err)
		}
	}

	if err := e.store.InsertSource(ctx, sourceID, input, displayName, len(doc.Pages), len(rawChunks)); err != nil {
		logger.Warn("Finalizing source %q failed: %v", sourceID, err)
		return fmt.Errorf("engine: ingest %q: finalizing source: %w", input, err)
	}
	logger.Info("Ingest: %d chunks stored for %q", len(rawChunks), sourceID)
	return nil
}

// IngestAsync is Ingest's counterpart for pipelines where prefix
// generation and embedding are expensive out-of-band steps. Each
// chunk's prefix is looked up in the content-addressed prefix cache
// first; on a cache miss it is generated by the configured PrefixFunc
// (falling back to the heuristic contextualizer on error or an empty
// sanitized result, or used directly when no PrefixFunc is configured)
// and the result is cached. When an embedder is configured, each
// chunk's augmented text is embedded and the vector stored inline.
func (e *Engine) IngestAsync(ctx context.Context, sourceID, input, displayName string, cfg ports.ChunkConfig) error {
	logger.Section("Ingest Async")
	logger.Debug("Source: %q, input: %q, embedder configured: %t", sourceID, input, e.embedder != nil)

	loader := e.loaderFor(input)
	if loader == nil {
		logger.Warn("No loader supports %q", input)
		return fmt.Errorf("engine: ingest %q: %w", input, ErrNoLoader)
	}

	doc, err := loader.Load(ctx, input)
	if err != nil {
		logger.Warn("Loading %q failed: %v", input, err)
		return fmt.Errorf("engine: ingest %q: loading: %w", input, err)
	}
	if e.filter != nil {
		doc = e.filter.Filter(doc)
	}
	logger.Debug("Loaded %d pages", len(doc.Pages))

	if err := e.store.DeleteChunksForSource(ctx, sourceID); err != nil {
		logger.Warn("Clearing existing chunks for %q failed: %v", sourceID, err)
		return fmt.Errorf("engine: ingest %q: clearing existing chunks: %w", input, err)
	}
	if err := e.store.InsertSource(ctx, sourceID, input, displayName, len(doc.Pages), 0); err != nil {
		logger.Warn("Registering source %q failed: %v", sourceID, err)
		return fmt.Errorf("engine: ingest %q: registering source: %w", input, err)
	}

	rawChunks, err := e.chunker.Chunk(ctx, sourceID, doc, cfg)
	if err != nil {
		logger.Warn("Chunking %q failed: %v", input, err)
		return fmt.Errorf("engine: ingest %q: chunking: %w", input, err)
	}
	logger.Debug("Chunked into %d chunks", len(rawChunks))

	embedded := 0
	for _, rc := range rawChunks {
		prefix, err := e.resolvePrefix(ctx, doc, rc)
		if err != nil {
			logger.Warn("Resolving prefix for %q failed: %v", sourceID, err)
			return fmt.Errorf("engine: ingest %q: resolving prefix: %w", input, err)
		}

		augmented := combineAugmented(prefix, rc.Text)
		chunkID, err := e.store.InsertChunk(ctx, sourceID, rc.Page, rc.Text, prefix, augmented)
		if err != nil {
			logger.Warn("Storing chunk for %q failed: %v", sourceID, err)
			return fmt.Errorf("engine: ingest %q: storing chunk: %w", input, err)
		}

		if e.embedder != nil {
			vec, err := e.embedder.Embed(ctx, augmented)
			if err != nil {
				logger.Warn("Embedding chunk for %q failed: %v", sourceID, err)
				return fmt.Errorf("engine: ingest %q: embedding chunk: %w", input, err)
			}
			if err := e.store.InsertVector(ctx, chunkID, len(vec), vec); err != nil {
				logger.Warn("Storing vector for %q failed: %v", sourceID, err)
				return fmt.Errorf("engine: ingest %q: storing vector: %w", input, err)
			}
			embedded++
		}
	}

	if err := e.store.InsertSource(ctx, sourceID, input, displayName, len(doc.Pages), len(rawChunks)); err != nil {
		logger.Warn("Finalizing source %q failed: %v", sourceID, err)
		return fmt.Errorf("engine: ingest %q: finalizing source: %w", input, err)
	}
	logger.Info("Ingest async: %d chunks stored, %d embedded for %q", len(rawChunks), embedded, sourceID)
	return nil
}

// resolvePrefix implements the cache-lookup-then-generate contract
// async ingest uses for every chunk.
func (e *Engine) resolvePrefix(ctx context.Context, doc *ports.LoadedDocument, rc ports.RawChunk) (string, error) {
	key := prefixCacheKey(rc.SourceID, rc.Page, rc.Text)

	if cached, ok, err := e.store.GetCachedPrefix(ctx, key); err != nil {
		return "", fmt.Errorf("looking up cached prefix: %w", err)
	} else if ok {
		return cached, nil
	}

	prefix := ""
	if e.prefixFn != nil {
		raw, err := e.prefixFn(ctx, doc, rc.Page, rc.Text)
		if err == nil {
			prefix = sanitize.Prefix(raw)
		}
	}
	if prefix == "" {
		prefix = heuristicPrefix(doc, rc.Page, rc.Text)
	}

	meta, err := json.Marshal(prefixCacheMeta{Model: prefixCacheModel(e.prefixFn), Rev: "v1", Chars: len([]rune(prefix))})
	if err != nil {
		return "", fmt.Errorf("marshaling prefix cache metadata: %w", err)
	}
	if err := e.store.PutCachedPrefix(ctx, key, prefix, string(meta)); err != nil {
		return "", fmt.Errorf("caching prefix: %w", err)
	}
	return prefix, nil
}

type prefixCacheMeta struct {
	Model string `json:"model"`
	Rev   string `json:"rev"`
	Chars int    `json:"chars"`
}

func prefixCacheModel(fn ports.PrefixFunc) string {
	if fn == nil {
		return "heuristic"
	}
	return "user-provided"
}

// BackfillEmbeddings embeds every chunk lacking a stored vector, in
// batches of batch chunks, optionally scoped to a single source.
func (e *Engine) BackfillEmbeddings(ctx context.Context, sourceID *string, batch int) error {
	if batch <= 0 {
		panic("engine: BackfillEmbeddings: batch must be positive")
	}
	if e.embedder == nil {
		return ErrEmbedderRequired
	}

	logger.Section("Backfill Embeddings")
	if sourceID != nil {
		logger.Debug("Source: %q, batch: %d", *sourceID, batch)
	} else {
		logger.Debug("Source: all, batch: %d", batch)
	}

	var afterOrdinal int64
	var total int
	for {
		chunks, err := e.store.FetchChunksMissingVector(ctx, sourceID, afterOrdinal, batch)
		if err != nil {
			logger.Warn("Fetching chunks missing vectors failed: %v", err)
			return fmt.Errorf("engine: backfill: fetching chunks: %w", err)
		}
		if len(chunks) == 0 {
			logger.Info("Backfill: %d chunks embedded", total)
			return nil
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = combineAugmented(c.SectionTitle, c.Content)
		}

		embeddings, err := e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Warn("Embedding batch failed: %v", err)
			return fmt.Errorf("engine: backfill: embedding batch: %w", err)
		}
		if len(embeddings) != len(chunks) {
			logger.Warn("Embedding count mismatch: got %d vectors for %d chunks", len(embeddings), len(chunks))
			return fmt.Errorf("engine: backfill: %w: got %d vectors for %d chunks", ErrEmbeddingCountMismatch, len(embeddings), len(chunks))
		}

		for i, c := range chunks {
			if err := e.store.InsertVector(ctx, c.ID, len(embeddings[i]), embeddings[i]); err != nil {
				logger.Warn("Storing vector for chunk %q failed: %v", c.ID, err)
				return fmt.Errorf("engine: backfill: storing vector for chunk %q: %w", c.ID, err)
			}
		}

		total += len(chunks)
		logger.Debug("Backfilled batch of %d chunks (%d total)", len(chunks), total)
		afterOrdinal = chunks[len(chunks)-1].Ordinal
		if len(chunks) < batch {
			logger.Info("Backfill: %d chunks embedded", total)
			return nil
		}
	}
}

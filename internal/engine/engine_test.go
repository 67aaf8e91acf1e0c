package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-eng/folio/internal/ports"
	"github.com/folio-eng/folio/internal/store/sqlite"
)

// fakeLoader treats its input string as inline document text, loaded as
// a single page at index 0, so tests can exercise ingest without a
// filesystem.
type fakeLoader struct {
	name string
}

func (l *fakeLoader) Supports(input string) bool { return true }

func (l *fakeLoader) Load(ctx context.Context, input string) (*ports.LoadedDocument, error) {
	return &ports.LoadedDocument{
		Name:  l.name,
		Pages: []ports.Page{{Index: 0, Text: input}},
	}, nil
}

type erroringLoader struct{ err error }

func (l *erroringLoader) Supports(input string) bool { return true }
func (l *erroringLoader) Load(ctx context.Context, input string) (*ports.LoadedDocument, error) {
	return nil, l.err
}

// wholeDocChunker emits one chunk per page, unmodified. Good enough to
// exercise the orchestration without pulling in the real chunker.
type wholeDocChunker struct{}

func (wholeDocChunker) Chunk(ctx context.Context, sourceID string, doc *ports.LoadedDocument, cfg ports.ChunkConfig) ([]ports.RawChunk, error) {
	out := make([]ports.RawChunk, len(doc.Pages))
	for i, p := range doc.Pages {
		page := p.Index
		out[i] = ports.RawChunk{SourceID: sourceID, Page: &page, Text: p.Text}
	}
	return out, nil
}

type fakeEmbedder struct {
	dim int
	err error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return fakeVector(text, e.dim), nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = fakeVector(t, e.dim)
	}
	return out, nil
}

// fakeVector derives a deterministic vector from text length so
// similarity comparisons in tests are reproducible without a real model.
func fakeVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(len(text)%(i+2)) + 1
	}
	return v
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	base := []Option{WithLoader(&fakeLoader{name: "doc.txt"})}
	return New(st, wholeDocChunker{}, append(base, opts...)...)
}

func TestIngestStoresRetrievableChunk(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	err := eng.Ingest(ctx, "src-1", "the quick brown fox jumps over the lazy dog", "Fox Doc", ports.ChunkConfig{}, false)
	require.NoError(t, err)

	hits, err := eng.Search(ctx, "fox", nil, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "src-1", hits[0].SourceID)
}

func TestIngestNoLoaderReturnsError(t *testing.T) {
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	eng := New(st, wholeDocChunker{}) // no loaders registered
	err = eng.Ingest(context.Background(), "src-1", "anything", "Doc", ports.ChunkConfig{}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoLoader)
}

func TestIngestPropagatesLoaderFault(t *testing.T) {
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	loadErr := errors.New("corrupt file")
	eng := New(st, wholeDocChunker{}, WithLoader(&erroringLoader{err: loadErr}))
	err = eng.Ingest(context.Background(), "src-1", "anything", "Doc", ports.ChunkConfig{}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)
}

func TestIngestWithContextualPrefixIsSearchableByPrefixText(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	err := eng.Ingest(ctx, "src-1", "Introduction\nwidgets are useful tools", "Widget Manual", ports.ChunkConfig{}, true)
	require.NoError(t, err)

	// "txt" occurs only in the heuristic prefix "[doc.txt p.1] Introduction"
	// (the fake loader names every document "doc.txt"), not in the chunk text.
	hits, err := eng.Search(ctx, "txt", nil, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestIngestReplacesExistingChunks(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Ingest(ctx, "src-1", "alpha content here", "Doc", ports.ChunkConfig{}, false))
	require.NoError(t, eng.Ingest(ctx, "src-1", "beta content here", "Doc", ports.ChunkConfig{}, false))

	hits, err := eng.Search(ctx, "alpha", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = eng.Search(ctx, "beta", nil, 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIngestAsyncEmbedsChunksWhenEmbedderConfigured(t *testing.T) {
	eng := newTestEngine(t, WithEmbedder(&fakeEmbedder{dim: 4}))
	ctx := context.Background()

	err := eng.IngestAsync(ctx, "src-1", "gizmos and gadgets galore", "Doc", ports.ChunkConfig{})
	require.NoError(t, err)

	err = eng.BackfillEmbeddings(ctx, nil, 10)
	require.NoError(t, err) // no-op: nothing left missing a vector
}

func TestIngestAsyncUsesPrefixFuncWithHeuristicFallbackOnError(t *testing.T) {
	calls := 0
	prefixFn := func(ctx context.Context, doc *ports.LoadedDocument, page *int, chunkText string) (string, error) {
		calls++
		return "", errors.New("model unavailable")
	}
	eng := newTestEngine(t, WithPrefixFunc(prefixFn))
	ctx := context.Background()

	err := eng.IngestAsync(ctx, "src-1", "Some Title\nthe body text follows", "Doc", ports.ChunkConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIngestAsyncCachesPrefixAcrossReingest(t *testing.T) {
	calls := 0
	prefixFn := func(ctx context.Context, doc *ports.LoadedDocument, page *int, chunkText string) (string, error) {
		calls++
		return "generated prefix", nil
	}
	eng := newTestEngine(t, WithPrefixFunc(prefixFn))
	ctx := context.Background()

	require.NoError(t, eng.IngestAsync(ctx, "src-1", "stable content for caching", "Doc", ports.ChunkConfig{}))
	assert.Equal(t, 1, calls)

	require.NoError(t, eng.IngestAsync(ctx, "src-1", "stable content for caching", "Doc", ports.ChunkConfig{}))
	assert.Equal(t, 1, calls, "second ingest of identical (sourceID, page, text) should hit the prefix cache")
}

func TestBackfillEmbeddingsRequiresEmbedder(t *testing.T) {
	eng := newTestEngine(t)
	err := eng.BackfillEmbeddings(context.Background(), nil, 10)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestBackfillEmbeddingsEmbedsChunksMissingVectors(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Ingest(ctx, "src-1", "unembedded content here", "Doc", ports.ChunkConfig{}, false))

	eng.embedder = &fakeEmbedder{dim: 3}
	require.NoError(t, eng.BackfillEmbeddings(ctx, nil, 10))

	// Running again is a no-op since nothing is missing a vector anymore.
	require.NoError(t, eng.BackfillEmbeddings(ctx, nil, 10))
}

func TestBackfillEmbeddingsMismatchCountErrors(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "content one", "Doc", ports.ChunkConfig{}, false))
	require.NoError(t, eng.Ingest(ctx, "src-2", "content two", "Doc", ports.ChunkConfig{}, false))

	eng.embedder = &badCountEmbedder{}
	err := eng.BackfillEmbeddings(ctx, nil, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
}

type badCountEmbedder struct{}

func (badCountEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (badCountEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return [][]float32{{1, 2}}, nil // always returns exactly one vector
}

func TestBackfillEmbeddingsPropagatesBatchPastFirstPage(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, eng.Ingest(ctx, sourceIDFor(i), "some content about widgets", "Doc", ports.ChunkConfig{}, false))
	}
	eng.embedder = &fakeEmbedder{dim: 2}
	require.NoError(t, eng.BackfillEmbeddings(ctx, nil, 2))
}

func sourceIDFor(i int) string {
	return "src-" + string(rune('a'+i))
}

func TestBackfillEmbeddingsBatchMustBePositive(t *testing.T) {
	eng := newTestEngine(t, WithEmbedder(&fakeEmbedder{dim: 2}))
	assert.Panics(t, func() {
		eng.BackfillEmbeddings(context.Background(), nil, 0)
	})
}

func TestSearchPanicsOnNonPositiveLimit(t *testing.T) {
	eng := newTestEngine(t)
	assert.Panics(t, func() {
		eng.Search(context.Background(), "anything", nil, 0)
	})
}

func TestSearchWithContextPanicsOnNegativeExpand(t *testing.T) {
	eng := newTestEngine(t)
	assert.Panics(t, func() {
		eng.SearchWithContext(context.Background(), "anything", nil, 5, -1)
	})
}

func TestSearchWithContextAssemblesWindow(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Ingest(ctx, "src-1",
		"first paragraph about cats\nsecond paragraph mentions dogs\nthird paragraph about cats again",
		"Doc", ports.ChunkConfig{}, false))

	passages, err := eng.SearchWithContext(ctx, "cats", nil, 5, 1)
	require.NoError(t, err)
	require.NotEmpty(t, passages)
}

func TestSearchWithContextDeduplicatesOverlappingWindows(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, eng.Ingest(ctx, sourceIDFor(i), "keyword appears in every chunk here", "Doc", ports.ChunkConfig{}, false))
	}

	passages, err := eng.SearchWithContext(ctx, "keyword", nil, 10, 0)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, p := range passages {
		for _, id := range p.ChunkIDs {
			assert.False(t, seen[id], "chunk %q should not appear in more than one passage", id)
			seen[id] = true
		}
	}
}

func TestSearchHybridWithoutEmbedderFallsBackToBM25Only(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "hybrid search example content", "Doc", ports.ChunkConfig{}, false))

	passages, err := eng.SearchHybrid(ctx, "hybrid", nil, 5, 0, 0.5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Nil(t, passages[0].Cosine)
}

func TestSearchHybridRanksByFusedScoreWithEmbedder(t *testing.T) {
	eng := newTestEngine(t, WithEmbedder(&fakeEmbedder{dim: 4}))
	ctx := context.Background()
	require.NoError(t, eng.IngestAsync(ctx, "src-1", "alpha beta gamma content one", "Doc", ports.ChunkConfig{}))
	require.NoError(t, eng.IngestAsync(ctx, "src-2", "alpha beta gamma content two", "Doc", ports.ChunkConfig{}))

	passages, err := eng.SearchHybrid(ctx, "alpha", nil, 5, 0, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, passages)
	for _, p := range passages {
		assert.NotNil(t, p.Cosine)
	}
}

func TestSearchHybridPanicsOnNonPositiveLimit(t *testing.T) {
	eng := newTestEngine(t)
	assert.Panics(t, func() {
		eng.SearchHybrid(context.Background(), "q", nil, 0, 0, 0.5)
	})
}

func TestFetchDocumentWholeDocumentWhenNoCursor(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "whole document body text", "My Doc", ports.ChunkConfig{}, false))

	slice, err := eng.FetchDocument(ctx, "src-1", nil, "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "My Doc", slice.DisplayName)
	assert.Contains(t, slice.Text, "whole document body text")
}

func TestFetchDocumentByAnchor(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "a rare phrase lives here", "Doc", ports.ChunkConfig{}, false))

	slice, err := eng.FetchDocument(ctx, "src-1", nil, "rare phrase", 0, nil)
	require.NoError(t, err)
	assert.Contains(t, slice.Text, "a rare phrase lives here")
}

func TestFetchDocumentAnchorNotFoundReturnsEmptySlice(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "some content", "Doc", ports.ChunkConfig{}, false))

	slice, err := eng.FetchDocument(ctx, "src-1", nil, "nonexistent phrase", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, slice.Text)
	assert.Empty(t, slice.ChunkIDs)
}

func TestFetchDocumentMissingSourceReturnsErrSourceNotFound(t *testing.T) {
	eng := newTestEngine(t)
	slice, err := eng.FetchDocument(context.Background(), "does-not-exist", nil, "", 0, nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Nil(t, slice)
}

func TestListSourcesReturnsIngestedSources(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "first document body", "First Doc", ports.ChunkConfig{}, false))
	require.NoError(t, eng.Ingest(ctx, "src-2", "second document body", "Second Doc", ports.ChunkConfig{}, false))

	sources, err := eng.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	ids := []string{sources[0].ID, sources[1].ID}
	assert.Contains(t, ids, "src-1")
	assert.Contains(t, ids, "src-2")
}

func TestListSourcesEmptyStoreReturnsEmpty(t *testing.T) {
	eng := newTestEngine(t)
	sources, err := eng.ListSources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)
}

// TestDeleteSourceRemovesChunksAndFTSRows exercises the property that
// after deleteSource, zero chunk rows and zero FTS mirror rows remain
// for that source: no more search hits, no more fetchable document,
// and it drops out of ListSources.
func TestDeleteSourceRemovesChunksAndFTSRows(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "the quick brown fox jumps over the lazy dog", "Fox Doc", ports.ChunkConfig{}, false))

	require.NoError(t, eng.DeleteSource(ctx, "src-1"))

	hits, err := eng.Search(ctx, "fox", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	slice, err := eng.FetchDocument(ctx, "src-1", nil, "", 0, nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Nil(t, slice)

	sources, err := eng.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestDeleteSourceUnknownIDIsNoop(t *testing.T) {
	eng := newTestEngine(t)
	assert.NoError(t, eng.DeleteSource(context.Background(), "does-not-exist"))
}

func TestFetchDocumentTruncatesToMaxChars(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.Ingest(ctx, "src-1", "0123456789", "Doc", ports.ChunkConfig{}, false))

	max := 5
	slice, err := eng.FetchDocument(ctx, "src-1", nil, "", 0, &max)
	require.NoError(t, err)
	assert.Equal(t, 5, len([]rune(slice.Text)))
}

func TestFetchDocumentPanicsOnExpandOutOfRange(t *testing.T) {
	eng := newTestEngine(t)
	assert.Panics(t, func() {
		eng.FetchDocument(context.Background(), "src-1", nil, "", 9, nil)
	})
	assert.Panics(t, func() {
		eng.FetchDocument(context.Background(), "src-1", nil, "", -1, nil)
	})
}

func TestFetchDocumentPanicsOnNegativeStartPage(t *testing.T) {
	eng := newTestEngine(t)
	bad := -1
	assert.Panics(t, func() {
		eng.FetchDocument(context.Background(), "src-1", &bad, "", 0, nil)
	})
}

func TestFetchDocumentPanicsOnNonPositiveMaxChars(t *testing.T) {
	eng := newTestEngine(t)
	zero := 0
	assert.Panics(t, func() {
		eng.FetchDocument(context.Background(), "src-1", nil, "", 0, &zero)
	})
}

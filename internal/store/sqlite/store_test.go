package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-eng/folio/internal/store/sqlite/migrations"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenRunsMigrations(t *testing.T) {
	st := openTestStore(t)
	assert.Equal(t, ":memory:", st.Path())

	cols, err := st.tableColumns("doc_chunks")
	require.NoError(t, err)
	assert.True(t, cols["fts_content"])
	assert.True(t, cols["section_title"])

	vecCols, err := st.tableColumns("doc_chunk_vectors")
	require.NoError(t, err)
	assert.True(t, vecCols["chunk_id"])
}

func TestOpenIsIdempotent(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	// A second migrate() call against an already-migrated schema must
	// not error; every migration statement uses IF NOT EXISTS.
	require.NoError(t, st.migrate(migrations.FS))
}

func TestReconcileLegacyVectorTableIsNoOpOnFreshSchema(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.reconcileLegacyVectorTable())

	cols, err := st.tableColumns("doc_chunk_vectors")
	require.NoError(t, err)
	assert.True(t, cols["chunk_id"])
}

func TestReconcileLegacyVectorTableMigratesLegacyLayout(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertSource(ctx, "src-1", "/tmp/a.txt", "A", 1, 0))
	chunkID, err := st.InsertChunk(ctx, "src-1", nil, "hello world", "", "")
	require.NoError(t, err)

	// Simulate the predecessor layout: an ordinal-keyed vector table.
	_, err = st.db.Exec(`DROP TABLE doc_chunk_vectors`)
	require.NoError(t, err)
	_, err = st.db.Exec(`
		CREATE TABLE doc_chunk_vectors (
			chunk_ordinal INTEGER PRIMARY KEY,
			dim INTEGER NOT NULL,
			vec BLOB NOT NULL
		)
	`)
	require.NoError(t, err)
	_, err = st.db.Exec(`INSERT INTO doc_chunk_vectors (chunk_ordinal, dim, vec) VALUES (1, 2, x'0000803F00000040')`)
	require.NoError(t, err)

	require.NoError(t, st.reconcileLegacyVectorTable())

	vectors, err := st.FetchVectors(ctx, []string{chunkID})
	require.NoError(t, err)
	row, ok := vectors[chunkID]
	require.True(t, ok)
	assert.Equal(t, 2, row.Dim)
	assert.InDelta(t, float32(1.0), row.Vector[0], 1e-6)
	assert.InDelta(t, float32(2.0), row.Vector[1], 1e-6)
}

func TestFetchSourceMissingReturnsNil(t *testing.T) {
	st := openTestStore(t)
	src, err := st.FetchSource(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, src)
}

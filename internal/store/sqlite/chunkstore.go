package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folio-eng/folio/internal/store"
)

var _ store.ChunkStore = (*Store)(nil)

// InsertSource upserts a source row by id; every field but the id is
// overwritten and the import timestamp is set to wall clock on write.
func (s *Store) InsertSource(ctx context.Context, id, path, displayName string, pages, chunkCount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (id, display_name, file_path, pages, chunks, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			file_path    = excluded.file_path,
			pages        = excluded.pages,
			chunks       = excluded.chunks,
			imported_at  = excluded.imported_at
	`, id, displayName, path, pages, chunkCount, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: upserting source %q: %w", id, err)
	}
	return nil
}

// DeleteChunksForSource removes chunk rows for id or the legacy
// composite pattern "<id> p.%", then rebuilds the FTS mirror inside the
// same transaction. It does not remove the source row.
func (s *Store) DeleteChunksForSource(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete-chunks transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteChunksForSourceTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteChunksForSourceTx(ctx context.Context, tx *sql.Tx, id string) error {
	legacyPattern := escapeLike(id) + " p.%"
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM doc_chunks WHERE source_id = ? OR source_id LIKE ? ESCAPE '\'
	`, id, legacyPattern); err != nil {
		return fmt.Errorf("sqlite: deleting chunks for source %q: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO doc_chunks_fts(doc_chunks_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("sqlite: rebuilding FTS mirror: %w", err)
	}
	return nil
}

// DeleteSource removes chunks and the FTS mirror for id, then the
// source row itself.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete-source transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteChunksForSourceTx(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting source %q: %w", id, err)
	}
	return tx.Commit()
}

// InsertChunk writes a chunk row with a newly generated id and a
// matching FTS mirror row sharing its ordinal.
func (s *Store) InsertChunk(ctx context.Context, sourceID string, page *int, content, sectionTitle, ftsContent string) (string, error) {
	if ftsContent == "" {
		ftsContent = content
	}
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite: beginning insert-chunk transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO doc_chunks (id, source_id, page, content, section_title, fts_content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, sourceID, nullableInt(page), content, sectionTitle, ftsContent)
	if err != nil {
		return "", fmt.Errorf("sqlite: inserting chunk: %w", err)
	}
	ordinal, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("sqlite: reading new chunk ordinal: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO doc_chunks_fts(rowid, fts_content, source_id, section_title)
		VALUES (?, ?, ?, ?)
	`, ordinal, ftsContent, sourceID, sectionTitle); err != nil {
		return "", fmt.Errorf("sqlite: inserting FTS mirror row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlite: committing insert-chunk transaction: %w", err)
	}
	return id, nil
}

// FTSHits runs a MATCH query and returns hits ordered by ascending
// BM25 (lower is better), with the excerpt's leading
// "sectionTitle + ' '" prefix stripped once for display.
func (s *Store) FTSHits(ctx context.Context, query string, sourceFilter *string, limit int) ([]store.FTSHit, error) {
	args := []any{query}
	sourceClause := ""
	if sourceFilter != nil {
		sourceClause = " AND dc.source_id = ?"
		args = append(args, *sourceFilter)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT dc.ordinal, dc.id, dc.source_id, dc.page, dc.section_title,
		       snippet(doc_chunks_fts, 0, '', '', '…', 18) AS excerpt,
		       bm25(doc_chunks_fts) AS score
		FROM doc_chunks_fts
		JOIN doc_chunks dc ON dc.ordinal = doc_chunks_fts.rowid
		WHERE doc_chunks_fts MATCH ?%s
		ORDER BY score ASC
		LIMIT ?
	`, sourceClause), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: running FTS query: %w", err)
	}
	defer rows.Close()

	var hits []store.FTSHit
	for rows.Next() {
		var (
			hit          store.FTSHit
			page         sql.NullInt64
			sectionTitle string
			excerpt      string
		)
		if err := rows.Scan(&hit.Ordinal, &hit.ChunkID, &hit.SourceID, &page, &sectionTitle, &excerpt, &hit.BM25); err != nil {
			return nil, fmt.Errorf("sqlite: scanning FTS hit: %w", err)
		}
		hit.Page = scanNullableInt(page)
		hit.Excerpt = stripSectionTitlePrefix(excerpt, sectionTitle)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// stripSectionTitlePrefix removes a single leading "sectionTitle + ' '"
// occurrence from excerpt, if present, so displayed snippets do not
// repeat the contextual prefix that was mixed into the indexed text.
func stripSectionTitlePrefix(excerpt, sectionTitle string) string {
	if sectionTitle == "" {
		return excerpt
	}
	prefix := sectionTitle + " "
	if strings.HasPrefix(excerpt, prefix) {
		return excerpt[len(prefix):]
	}
	return excerpt
}

// FetchNeighbors returns up to expand chunks before aroundOrdinal
// (ascending), the center chunk, and up to expand chunks after,
// restricted to sourceID.
func (s *Store) FetchNeighbors(ctx context.Context, sourceID string, aroundOrdinal int64, expand int) ([]store.Chunk, error) {
	before, err := s.queryChunks(ctx, `
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND ordinal < ?
		ORDER BY ordinal DESC LIMIT ?
	`, sourceID, aroundOrdinal, expand)
	if err != nil {
		return nil, err
	}
	reverseChunks(before)

	center, err := s.queryChunks(ctx, `
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND ordinal = ?
	`, sourceID, aroundOrdinal)
	if err != nil {
		return nil, err
	}

	after, err := s.queryChunks(ctx, `
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND ordinal > ?
		ORDER BY ordinal ASC LIMIT ?
	`, sourceID, aroundOrdinal, expand)
	if err != nil {
		return nil, err
	}

	out := make([]store.Chunk, 0, len(before)+len(center)+len(after))
	out = append(out, before...)
	out = append(out, center...)
	out = append(out, after...)
	return out, nil
}

// FetchChunksFromPage returns all chunks whose page is at or after
// page, ordered by ordinal.
func (s *Store) FetchChunksFromPage(ctx context.Context, sourceID string, page int) ([]store.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND page >= ?
		ORDER BY ordinal ASC
	`, sourceID, page)
}

// FetchAllChunks returns every chunk for a source, ordered by ordinal.
func (s *Store) FetchAllChunks(ctx context.Context, sourceID string) ([]store.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ?
		ORDER BY ordinal ASC
	`, sourceID)
}

// FindAnchorOrdinal returns the ordinal of the first chunk (ascending)
// whose content contains text, case-insensitively.
func (s *Store) FindAnchorOrdinal(ctx context.Context, sourceID, text string) (*int64, error) {
	var ordinal int64
	err := s.db.QueryRowContext(ctx, `
		SELECT ordinal FROM doc_chunks
		WHERE source_id = ? AND lower(content) LIKE lower(?) ESCAPE '\'
		ORDER BY ordinal ASC LIMIT 1
	`, sourceID, "%"+escapeLike(text)+"%").Scan(&ordinal)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding anchor ordinal: %w", err)
	}
	return &ordinal, nil
}

// FetchSource looks up a source by id.
func (s *Store) FetchSource(ctx context.Context, id string) (*store.Source, error) {
	var (
		src        store.Source
		importedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, file_path, pages, chunks, imported_at
		FROM sources WHERE id = ?
	`, id).Scan(&src.ID, &src.DisplayName, &src.FilePath, &src.Pages, &src.Chunks, &importedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching source %q: %w", id, err)
	}
	src.ImportedAt = parseTimestamp(importedAt)
	return &src, nil
}

// ListSources returns all sources ordered by import time, most recent
// first.
func (s *Store) ListSources(ctx context.Context) ([]store.Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, file_path, pages, chunks, imported_at
		FROM sources ORDER BY imported_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sources: %w", err)
	}
	defer rows.Close()

	var out []store.Source
	for rows.Next() {
		var (
			src        store.Source
			importedAt string
		)
		if err := rows.Scan(&src.ID, &src.DisplayName, &src.FilePath, &src.Pages, &src.Chunks, &importedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning source row: %w", err)
		}
		src.ImportedAt = parseTimestamp(importedAt)
		out = append(out, src)
	}
	return out, rows.Err()
}

// FetchChunksMissingVector returns up to limit chunks lacking a vector
// row, optionally scoped to sourceID, ordered by ordinal and starting
// strictly after afterOrdinal.
func (s *Store) FetchChunksMissingVector(ctx context.Context, sourceID *string, afterOrdinal int64, limit int) ([]store.Chunk, error) {
	args := []any{afterOrdinal}
	sourceClause := ""
	if sourceID != nil {
		sourceClause = " AND dc.source_id = ?"
		args = append(args, *sourceID)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT dc.ordinal, dc.id, dc.source_id, dc.page, dc.content, dc.section_title
		FROM doc_chunks dc
		LEFT JOIN doc_chunk_vectors v ON v.chunk_id = dc.id
		WHERE v.chunk_id IS NULL AND dc.ordinal > ?%s
		ORDER BY dc.ordinal ASC
		LIMIT ?
	`, sourceClause), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying chunks missing vectors: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]store.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]store.Chunk, error) {
	var out []store.Chunk
	for rows.Next() {
		var (
			c    store.Chunk
			page sql.NullInt64
		)
		if err := rows.Scan(&c.Ordinal, &c.ID, &c.SourceID, &page, &c.Content, &c.SectionTitle); err != nil {
			return nil, fmt.Errorf("sqlite: scanning chunk row: %w", err)
		}
		c.Page = scanNullableInt(page)
		out = append(out, c)
	}
	return out, rows.Err()
}

func reverseChunks(c []store.Chunk) {
	for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
		c[i], c[j] = c[j], c[i]
	}
}

// escapeLike escapes '%', '_', and the escape character itself so a
// caller-provided literal can be embedded safely in a LIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/folio-eng/folio/internal/store"
	"github.com/folio-eng/folio/internal/vector"
)

var _ store.VectorStore = (*Store)(nil)

// InsertVector writes a chunk's dimensionality and packed float32 blob,
// replacing any existing vector for that chunk.
func (s *Store) InsertVector(ctx context.Context, chunkID string, dim int, vec []float32) error {
	blob := vector.Pack(vec)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doc_chunk_vectors (chunk_id, dim, vec)
		VALUES (?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			dim = excluded.dim,
			vec = excluded.vec
	`, chunkID, dim, blob)
	if err != nil {
		return fmt.Errorf("sqlite: storing vector for chunk %q: %w", chunkID, err)
	}
	return nil
}

// FetchVectors decodes stored vectors for the given chunk ids, in one
// batch. Chunk ids with no stored vector are simply absent from the
// result map.
func (s *Store) FetchVectors(ctx context.Context, chunkIDs []string) (map[string]store.VectorRow, error) {
	out := make(map[string]store.VectorRow, len(chunkIDs))
	if len(chunkIDs) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT chunk_id, dim, vec FROM doc_chunk_vectors WHERE chunk_id IN (%s)
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching vectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			chunkID string
			dim     int
			blob    []byte
		)
		if err := rows.Scan(&chunkID, &dim, &blob); err != nil {
			return nil, fmt.Errorf("sqlite: scanning vector row: %w", err)
		}
		vec, err := vector.Unpack(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decoding vector for chunk %q: %w", chunkID, err)
		}
		out[chunkID] = store.VectorRow{Dim: dim, Vector: vec}
	}
	return out, rows.Err()
}

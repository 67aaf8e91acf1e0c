// Package sqlite is the concrete storage adapter backing
// internal/store's ports. It wraps a single modernc.org/sqlite
// (pure-Go, cgo-free) database handle, grounded on the teacher's
// internal/adapters/driven/storage/sqlite.Store: WAL mode, a busy
// timeout, foreign keys, and a migration runner reading an embedded
// SQL ladder. The teacher's cgo Xapian/HNSWlib bindings are replaced
// wholesale here by SQLite's own FTS5 virtual table and a plain BLOB
// column, since the retrieval engine this package backs requires an
// embedded FTS5 index and forbids ANN vector indexes.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/folio-eng/folio/internal/store"
	"github.com/folio-eng/folio/internal/store/sqlite/migrations"
)

var _ store.Store = (*Store)(nil)

// Store is the SQLite-backed implementation of store.Store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the SQLite database at path,
// applies pending migrations, and reconciles any legacy vector table
// layout. path may be a filesystem path or the literal ":memory:".
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
			}
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if path == ":memory:" {
		// An in-memory database is a single connection's worth of
		// state; a pool would silently create a fresh empty database
		// on the second connection.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, path: path}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	if err := s.reconcileLegacyVectorTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: reconciling legacy vector table: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path (or ":memory:").
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending schema migrations inside a single
// transaction with foreign keys enabled, following the teacher's
// numbered "NNN_description.up.sql" convention.
func (s *Store) migrate(fsys embed.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("reading current schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	applied := 0
	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // not a versioned migration file, skip
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		applied++
	}

	if applied == 0 && currentVersion == 0 {
		// No migration files matched at all: a genuinely missing
		// migration ladder is a fatal open error, not a silent no-op.
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sources'").Scan(&count); err == nil && count == 0 {
			return fmt.Errorf("no schema migrations found")
		}
	}

	return tx.Commit()
}

// reconcileLegacyVectorTable detects a pre-existing doc_chunk_vectors
// table keyed by the chunk's row ordinal (the legacy layout, described
// in the design notes as the predecessor to keying by chunk id) and
// rebuilds it keyed by chunk id, joining legacy rows against current
// chunk rows on the ordinal. It is a no-op when the current-layout
// table already has a chunk_id column, which is the case for every
// database created by this package's own migration ladder.
func (s *Store) reconcileLegacyVectorTable() error {
	cols, err := s.tableColumns("doc_chunk_vectors")
	if err != nil {
		return err
	}
	if cols["chunk_id"] || len(cols) == 0 {
		return nil
	}
	if !cols["chunk_ordinal"] {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`ALTER TABLE doc_chunk_vectors RENAME TO doc_chunk_vectors_legacy`); err != nil {
		return fmt.Errorf("renaming legacy vector table: %w", err)
	}
	if _, err := tx.Exec(`
		CREATE TABLE doc_chunk_vectors (
			chunk_id TEXT PRIMARY KEY,
			dim      INTEGER NOT NULL,
			vec      BLOB NOT NULL,
			FOREIGN KEY (chunk_id) REFERENCES doc_chunks(id) ON DELETE CASCADE
		)
	`); err != nil {
		return fmt.Errorf("creating chunk-id keyed vector table: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO doc_chunk_vectors (chunk_id, dim, vec)
		SELECT dc.id, legacy.dim, legacy.vec
		FROM doc_chunk_vectors_legacy AS legacy
		JOIN doc_chunks AS dc ON dc.ordinal = legacy.chunk_ordinal
	`); err != nil {
		return fmt.Errorf("migrating legacy vector rows: %w", err)
	}
	if _, err := tx.Exec(`DROP TABLE doc_chunk_vectors_legacy`); err != nil {
		return fmt.Errorf("dropping legacy vector table: %w", err)
	}

	return tx.Commit()
}

// tableColumns returns the set of column names for a table, or an
// empty set if the table does not exist.
func (s *Store) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("reading table_info for %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scanning table_info row: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func scanNullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

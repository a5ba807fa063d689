package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

// Store implements store.ModelStore using SQLite
type Store struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS models (
	name TEXT PRIMARY KEY,
	total_term_count INTEGER NOT NULL,
	revision TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS model_terms (
	model TEXT NOT NULL,
	term TEXT NOT NULL,
	count INTEGER NOT NULL,
	probability REAL NOT NULL,
	PRIMARY KEY(model, term),
	FOREIGN KEY(model) REFERENCES models(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS model_revisions (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	total_term_count INTEGER NOT NULL,
	vocabulary INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_model_revisions_model ON model_revisions(model, id);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveModel replaces the stored terms of name with a snapshot of m and
// records a new revision.
func (s *Store) SaveModel(ctx context.Context, name string, m *termmodel.Model) (store.Revision, error) {
	if name == "" {
		return store.Revision{}, fmt.Errorf("%w: empty model name", internalerr.ErrInvalidInput)
	}

	// revision ids sort in save order
	id := ulid.Make()
	rev := store.NewRevision(id.String(), name, m, ulid.Time(id.Time()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Revision{}, err
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO models (name, total_term_count, revision, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	total_term_count=excluded.total_term_count,
	revision=excluded.revision,
	updated_at=excluded.updated_at;
`
	createdAt := rev.CreatedAt.Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, upsert, name, rev.TotalTermCount, rev.ID, createdAt); err != nil {
		return store.Revision{}, err
	}
	if err := replaceTerms(ctx, tx, name, m.Terms()); err != nil {
		return store.Revision{}, err
	}

	const insertRev = `
INSERT INTO model_revisions (id, model, total_term_count, vocabulary, created_at)
VALUES (?, ?, ?, ?, ?)
`
	if _, err := tx.ExecContext(ctx, insertRev, rev.ID, name, rev.TotalTermCount, rev.Vocabulary, createdAt); err != nil {
		return store.Revision{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.Revision{}, err
	}
	return rev, nil
}

func replaceTerms(ctx context.Context, tx *sql.Tx, name string, terms []termmodel.Term) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_terms WHERE model=?`, name); err != nil {
		return err
	}
	if len(terms) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO model_terms (model, term, count, probability) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, t := range terms {
		if _, err := stmt.ExecContext(ctx, name, t.Term, t.Count, t.Probability); err != nil {
			return err
		}
	}
	return nil
}

// LoadModel rebuilds a stored model with its counts and probabilities.
func (s *Store) LoadModel(ctx context.Context, name string) (*termmodel.Model, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT total_term_count FROM models WHERE name=?`, name).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model %q: %w", name, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT term, count, probability FROM model_terms WHERE model=?`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]termmodel.Entry)
	for rows.Next() {
		var term string
		var e termmodel.Entry
		if err := rows.Scan(&term, &e.Count, &e.Probability); err != nil {
			return nil, err
		}
		entries[term] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m, err := termmodel.Restore(total, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: model %q: %v", internalerr.ErrInvalidInput, name, err)
	}
	return m, nil
}

// ListModels returns stored model names in ascending order.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM models ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Revisions returns the saved revisions of name, oldest first.
func (s *Store) Revisions(ctx context.Context, name string) ([]store.Revision, error) {
	const query = `
SELECT id, model, total_term_count, vocabulary, created_at
FROM model_revisions
WHERE model=?
ORDER BY id
`
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []store.Revision
	for rows.Next() {
		var rev store.Revision
		var createdAt string
		if err := rows.Scan(&rev.ID, &rev.Name, &rev.TotalTermCount, &rev.Vocabulary, &createdAt); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rev.CreatedAt = ts
		}
		revs = append(revs, rev)
	}
	return revs, rows.Err()
}

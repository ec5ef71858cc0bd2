package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/todmy/cinematch/internal/catalog"
	"github.com/todmy/cinematch/internal/similarity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS movies (
	idx      INTEGER PRIMARY KEY,
	movie_id INTEGER NOT NULL UNIQUE,
	title    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS similarity (
	idx    INTEGER PRIMARY KEY REFERENCES movies (idx),
	scores BLOB    NOT NULL
);
`

// OpenSQLite opens a SQLite bundle. Use ":memory:" for a private in-memory
// database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSQLiteSchema creates the bundle tables if they do not exist.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

// SQLiteLoader loads the dataset from a single-file SQLite bundle. Scores
// are stored as BLOBs, see EncodeScores.
type SQLiteLoader struct {
	db *sql.DB
}

// NewSQLiteLoader creates a new SQLiteLoader
func NewSQLiteLoader(db *sql.DB) *SQLiteLoader {
	return &SQLiteLoader{db: db}
}

// Load reads every movie and similarity row
func (l *SQLiteLoader) Load(ctx context.Context) (*Dataset, error) {
	items, err := queryMovies(ctx, l.db)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `SELECT idx, scores FROM similarity ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("query similarity: %w", err)
	}
	defer rows.Close()

	scores := make(map[int][]float64, len(items))
	for rows.Next() {
		var idx int
		var blob []byte
		if err := rows.Scan(&idx, &blob); err != nil {
			return nil, fmt.Errorf("scan similarity: %w", err)
		}
		row, err := DecodeScores(blob)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", idx, err)
		}
		scores[idx] = row
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assemble(items, scores)
}

// SQLiteWriter writes a dataset into a SQLite bundle
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter creates a new SQLiteWriter
func NewSQLiteWriter(db *sql.DB) *SQLiteWriter {
	return &SQLiteWriter{db: db}
}

// Save replaces the bundle contents in a single transaction.
func (w *SQLiteWriter) Save(ctx context.Context, cat *catalog.Catalog, table *similarity.Table) error {
	if err := table.ValidateAgainst(cat.Len()); err != nil {
		return err
	}
	if err := EnsureSQLiteSchema(ctx, w.db); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM similarity`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
		return err
	}

	movieStmt, err := tx.PrepareContext(ctx, `INSERT INTO movies(idx, movie_id, title) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer movieStmt.Close()

	for _, m := range cat.Items() {
		if _, err := movieStmt.ExecContext(ctx, m.Index, m.ID, m.Title); err != nil {
			return fmt.Errorf("insert movie %d: %w", m.Index, err)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO similarity(idx, scores) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()

	for i := 0; i < table.Size(); i++ {
		row, err := table.Row(i)
		if err != nil {
			return err
		}
		if _, err := rowStmt.ExecContext(ctx, i, EncodeScores(row)); err != nil {
			return fmt.Errorf("insert similarity row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

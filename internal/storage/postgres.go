package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/todmy/cinematch/internal/catalog"
	"github.com/todmy/cinematch/internal/similarity"
	"github.com/todmy/cinematch/pkg/models"
)

// PostgresSchema creates the tables read by PostgresLoader. Each similarity
// row is stored as a pgvector column, so the catalog is limited to the
// 16000 dimensions a vector column supports.
const PostgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS movies (
	idx      INTEGER PRIMARY KEY,
	movie_id BIGINT  NOT NULL UNIQUE,
	title    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS similarity (
	idx    INTEGER PRIMARY KEY REFERENCES movies (idx),
	scores vector  NOT NULL
);
`

// PostgresLoader loads the dataset from PostgreSQL with pgvector
type PostgresLoader struct {
	db *sql.DB
}

// NewPostgresLoader creates a new PostgresLoader
func NewPostgresLoader(db *sql.DB) *PostgresLoader {
	return &PostgresLoader{db: db}
}

// Load reads every movie and similarity row
func (l *PostgresLoader) Load(ctx context.Context) (*Dataset, error) {
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
		var vec pgvector.Vector
		if err := rows.Scan(&idx, &vec); err != nil {
			return nil, fmt.Errorf("scan similarity: %w", err)
		}
		if _, dup := scores[idx]; dup {
			return nil, fmt.Errorf("%w: duplicate row %d", similarity.ErrShapeMismatch, idx)
		}
		scores[idx] = toFloat64(vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assemble(items, scores)
}

// PostgresWriter seeds the movies and similarity tables
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter creates a new PostgresWriter
func NewPostgresWriter(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

// Save replaces the stored dataset in a single transaction.
func (w *PostgresWriter) Save(ctx context.Context, cat *catalog.Catalog, table *similarity.Table) error {
	if err := table.ValidateAgainst(cat.Len()); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM similarity`); err != nil {
		return fmt.Errorf("clear similarity: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
		return fmt.Errorf("clear movies: %w", err)
	}

	movieStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movies (idx, movie_id, title)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return err
	}
	defer movieStmt.Close()

	for _, m := range cat.Items() {
		if _, err := movieStmt.ExecContext(ctx, m.Index, m.ID, m.Title); err != nil {
			return fmt.Errorf("insert movie %d: %w", m.Index, err)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO similarity (idx, scores)
		VALUES ($1, $2)
	`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()

	for i := 0; i < table.Size(); i++ {
		row, err := table.Row(i)
		if err != nil {
			return err
		}
		if _, err := rowStmt.ExecContext(ctx, i, pgvector.NewVector(toFloat32(row))); err != nil {
			return fmt.Errorf("insert similarity row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// queryMovies reads the movies table in index order. The query has no
// placeholders so it runs unchanged on PostgreSQL and SQLite.
func queryMovies(ctx context.Context, db *sql.DB) ([]models.Movie, error) {
	rows, err := db.QueryContext(ctx, `SELECT idx, movie_id, title FROM movies ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var items []models.Movie
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.Index, &m.ID, &m.Title); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

package storage

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/todmy/cinematch/internal/catalog"
	"github.com/todmy/cinematch/internal/similarity"
	"github.com/todmy/cinematch/pkg/models"
)

func TestSQLite_SaveLoad(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite(:memory:) failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	cat, err := catalog.New([]models.Movie{
		{Index: 0, ID: 19995, Title: "Avatar"},
		{Index: 1, ID: 285, Title: "Pirates of the Caribbean: At World's End"},
		{Index: 2, ID: 206647, Title: "Spectre"},
	})
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	table, err := similarity.NewTable([][]float64{
		{1, 0.123456789, 0.5},
		{0.123456789, 1, 0.75},
		{0.5, 0.75, 1},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	if err := NewSQLiteWriter(db).Save(ctx, cat, table); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ds, err := NewSQLiteLoader(db).Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ds.Catalog.Len() != 3 {
		t.Fatalf("expected 3 movies, got %d", ds.Catalog.Len())
	}
	if m, _ := ds.Catalog.At(1); m.ID != 285 {
		t.Errorf("unexpected movie at 1: %+v", m)
	}
	score, _ := ds.Table.Score(0, 1)
	if score != 0.123456789 {
		t.Errorf("score lost precision: %v", score)
	}

	// Saving twice replaces the contents.
	if err := NewSQLiteWriter(db).Save(ctx, cat, table); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	ds, err = NewSQLiteLoader(db).Load(ctx)
	if err != nil {
		t.Fatalf("Load after resave failed: %v", err)
	}
	if ds.Catalog.Len() != 3 {
		t.Errorf("expected 3 movies after resave, got %d", ds.Catalog.Len())
	}
}

func TestSQLiteLoader_MissingRow(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite(:memory:) failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := EnsureSQLiteSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSQLiteSchema failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO movies(idx, movie_id, title) VALUES (0, 1, 'A'), (1, 2, 'B')`); err != nil {
		t.Fatalf("insert movies: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO similarity(idx, scores) VALUES (0, ?)`, EncodeScores([]float64{1, 0.5})); err != nil {
		t.Fatalf("insert similarity: %v", err)
	}

	_, err = NewSQLiteLoader(db).Load(ctx)
	if !errors.Is(err, similarity.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestEncodeDecodeScores(t *testing.T) {
	orig := []float64{0, 1.5, -2.25, math.Inf(1)}

	decoded, err := DecodeScores(EncodeScores(orig))
	if err != nil {
		t.Fatalf("DecodeScores failed: %v", err)
	}
	if len(decoded) != len(orig) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(orig))
	}
	for i := range orig {
		if decoded[i] != orig[i] {
			t.Fatalf("decoded[%d] = %v, want %v", i, decoded[i], orig[i])
		}
	}

	if _, err := DecodeScores([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

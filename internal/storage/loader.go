package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/todmy/cinematch/internal/catalog"
	"github.com/todmy/cinematch/internal/similarity"
	"github.com/todmy/cinematch/pkg/models"
)

// Dataset is a catalog together with its aligned similarity table.
type Dataset struct {
	Catalog *catalog.Catalog
	Table   *similarity.Table
}

// Loader reads a Dataset from some backing store. Loaders run once at
// process start.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

var errMissingRow = errors.New("storage: missing similarity row")

// assemble builds and validates a Dataset from raw catalog items and
// similarity rows keyed by catalog index.
func assemble(items []models.Movie, rows map[int][]float64) (*Dataset, error) {
	cat, err := catalog.New(items)
	if err != nil {
		return nil, err
	}

	n := cat.Len()
	if len(rows) != n {
		return nil, fmt.Errorf("%w: %d similarity rows for %d movies", similarity.ErrShapeMismatch, len(rows), n)
	}

	ordered := make([][]float64, n)
	for i := 0; i < n; i++ {
		row, ok := rows[i]
		if !ok {
			return nil, fmt.Errorf("%w: index %d", errMissingRow, i)
		}
		ordered[i] = row
	}

	table, err := similarity.NewTable(ordered)
	if err != nil {
		return nil, err
	}

	return &Dataset{Catalog: cat, Table: table}, nil
}

// newDataset pairs an already decoded table with catalog items.
func newDataset(items []models.Movie, table *similarity.Table) (*Dataset, error) {
	cat, err := catalog.New(items)
	if err != nil {
		return nil, err
	}
	if err := table.ValidateAgainst(cat.Len()); err != nil {
		return nil, err
	}
	return &Dataset{Catalog: cat, Table: table}, nil
}

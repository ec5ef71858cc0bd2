package similarity

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidIndex  = errors.New("similarity: index out of range")
	ErrShapeMismatch = errors.New("similarity: table shape mismatch")
	ErrInvalidK      = errors.New("similarity: k must be non-negative")
)

// Table is a read-only square matrix of precomputed similarity scores.
// Cell (i, j) is the score of catalog item j relative to item i. The table
// is never assumed to be symmetric.
type Table struct {
	dense *mat.Dense
	n     int
}

// NewTable builds a table from row slices. Every row must have exactly
// len(rows) values. The input is copied.
func NewTable(rows [][]float64) (*Table, error) {
	n := len(rows)
	if n == 0 {
		return &Table{}, nil
	}

	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), n)
		}
		data = append(data, row...)
	}

	return &Table{dense: mat.NewDense(n, n, data), n: n}, nil
}

// FromDense wraps an existing gonum matrix. The matrix must be square and
// must not be modified afterwards.
func FromDense(m *mat.Dense) (*Table, error) {
	if m == nil || m.IsEmpty() {
		return &Table{}, nil
	}
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: %dx%d is not square", ErrShapeMismatch, r, c)
	}
	return &Table{dense: m, n: r}, nil
}

// Size returns the number of rows (and columns) in the table
func (t *Table) Size() int {
	if t == nil {
		return 0
	}
	return t.n
}

// Row returns the scores of row i. The returned slice aliases the table
// and must not be modified.
func (t *Table) Row(i int) ([]float64, error) {
	if i < 0 || i >= t.Size() {
		return nil, fmt.Errorf("%w: %d (table size %d)", ErrInvalidIndex, i, t.Size())
	}
	return t.dense.RawRowView(i), nil
}

// Score returns cell (i, j)
func (t *Table) Score(i, j int) (float64, error) {
	if i < 0 || i >= t.Size() || j < 0 || j >= t.Size() {
		return 0, fmt.Errorf("%w: (%d, %d) (table size %d)", ErrInvalidIndex, i, j, t.Size())
	}
	return t.dense.At(i, j), nil
}

// ValidateAgainst checks that the table is aligned with a catalog of n items.
func (t *Table) ValidateAgainst(n int) error {
	if t.Size() != n {
		return fmt.Errorf("%w: table has %d rows, catalog has %d items", ErrShapeMismatch, t.Size(), n)
	}
	return nil
}

// Dense exposes the underlying matrix for serialization
func (t *Table) Dense() *mat.Dense {
	if t == nil {
		return nil
	}
	return t.dense
}

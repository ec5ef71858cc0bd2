package similarity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

var errEmptyTable = errors.New("similarity: empty table")

// WriteTable serializes the table in gonum's binary matrix format.
func WriteTable(w io.Writer, t *Table) error {
	if t.Size() == 0 {
		return errEmptyTable
	}
	if _, err := t.dense.MarshalBinaryTo(w); err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	return nil
}

// ReadTable reads a table written by WriteTable.
func ReadTable(r io.Reader) (*Table, error) {
	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(r); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	return FromDense(&m)
}

// ReadTableJSON reads a table encoded as a JSON array of rows.
func ReadTableJSON(r io.Reader) (*Table, error) {
	var rows [][]float64
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	return NewTable(rows)
}

// WriteTableJSON writes the table as a JSON array of rows.
func WriteTableJSON(w io.Writer, t *Table) error {
	rows := make([][]float64, t.Size())
	for i := range rows {
		rows[i] = t.dense.RawRowView(i)
	}
	return json.NewEncoder(w).Encode(rows)
}

package similarity

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func mustTable(t *testing.T, rows [][]float64) *Table {
	t.Helper()
	table, err := NewTable(rows)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func exampleTable(t *testing.T) *Table {
	return mustTable(t, [][]float64{
		{1.0, 0.2, 0.9, 0.5},
		{0.2, 1.0, 0.3, 0.1},
		{0.9, 0.3, 1.0, 0.4},
		{0.5, 0.1, 0.4, 1.0},
	})
}

func TestSelectTopK(t *testing.T) {
	table := exampleTable(t)

	tests := []struct {
		name  string
		query int
		k     int
		want  []int
	}{
		{"top two", 0, 2, []int{2, 3}},
		{"top one", 1, 1, []int{2}},
		{"all candidates", 3, 3, []int{0, 2, 1}},
		{"k clamped", 2, 10, []int{0, 3, 1}},
		{"zero k", 0, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectTopK(tt.query, table, tt.k)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectTopK(%d, k=%d) = %v, want %v", tt.query, tt.k, got, tt.want)
			}
		})
	}
}

func TestSelectTopK_TiesByAscendingIndex(t *testing.T) {
	table := mustTable(t, [][]float64{
		{1.0, 0.9, 0.9, 0.5},
		{0.9, 1.0, 0.1, 0.1},
		{0.9, 0.1, 1.0, 0.1},
		{0.5, 0.1, 0.1, 1.0},
	})

	got, err := SelectTopK(0, table, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectTopK_ExcludesQueryEvenWhenNotHighest(t *testing.T) {
	table := mustTable(t, [][]float64{
		{0.0, 0.3, 0.2},
		{0.3, 0.0, 0.9},
		{0.2, 0.9, 0.0},
	})

	got, err := SelectTopK(1, table, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []int{2, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectTopK_Asymmetric(t *testing.T) {
	table := mustTable(t, [][]float64{
		{1.0, 0.1, 0.8},
		{0.9, 1.0, 0.2},
		{0.1, 0.7, 1.0},
	})

	got, err := SelectTopK(2, table, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []int{1}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectTopK_Errors(t *testing.T) {
	table := exampleTable(t)

	if _, err := SelectTopK(99, table, 3); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := SelectTopK(-1, table, 3); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for negative index, got %v", err)
	}
	if _, err := SelectTopK(0, table, -1); !errors.Is(err, ErrInvalidK) {
		t.Errorf("expected ErrInvalidK, got %v", err)
	}
	if _, err := SelectTopK(0, nil, 3); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for nil table, got %v", err)
	}
}

func TestSelectTopK_Properties(t *testing.T) {
	table := exampleTable(t)

	for query := 0; query < table.Size(); query++ {
		row, _ := table.Row(query)
		for k := 0; k < table.Size(); k++ {
			got, err := SelectTopKScored(query, table, k)
			if err != nil {
				t.Fatalf("query %d k %d: %v", query, k, err)
			}
			if len(got) != k {
				t.Errorf("query %d k %d: got %d results", query, k, len(got))
			}

			seen := make(map[int]bool)
			for i, n := range got {
				if n.Index == query {
					t.Errorf("query %d returned itself", query)
				}
				if seen[n.Index] {
					t.Errorf("query %d returned duplicate %d", query, n.Index)
				}
				seen[n.Index] = true
				if n.Score != row[n.Index] {
					t.Errorf("score for %d = %v, want %v", n.Index, n.Score, row[n.Index])
				}
				if i > 0 && got[i-1].Score < n.Score {
					t.Errorf("query %d: results not descending at %d", query, i)
				}
			}

			again, _ := SelectTopKScored(query, table, k)
			if !reflect.DeepEqual(got, again) {
				t.Errorf("query %d k %d: repeated call differs", query, k)
			}
		}
	}
}

func TestSelectTopK_NaNRanksLast(t *testing.T) {
	nan := math.NaN()
	table := mustTable(t, [][]float64{
		{1.0, nan, 0.1, 0.4},
		{nan, 1.0, 0.0, 0.0},
		{0.1, 0.0, 1.0, 0.0},
		{0.4, 0.0, 0.0, 1.0},
	})

	got, err := SelectTopK(0, table, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []int{3, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectTopK_SingleItem(t *testing.T) {
	table := mustTable(t, [][]float64{{1.0}})

	got, err := SelectTopK(0, table, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %v", got)
	}
}

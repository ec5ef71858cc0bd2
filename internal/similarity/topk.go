package similarity

import (
	"fmt"
	"math"
	"sort"
)

// Neighbor is a candidate index with its score relative to a query row.
type Neighbor struct {
	Index int
	Score float64
}

// SelectTopK returns the k indices with the highest score in row query,
// excluding query itself. Results are ordered by descending score, with
// ties broken by ascending index. k is clamped to Size()-1.
func SelectTopK(query int, table *Table, k int) ([]int, error) {
	neighbors, err := SelectTopKScored(query, table, k)
	if err != nil {
		return nil, err
	}

	indices := make([]int, len(neighbors))
	for i, n := range neighbors {
		indices[i] = n.Index
	}
	return indices, nil
}

// SelectTopKScored is SelectTopK but keeps the score of every result.
// NaN scores rank below every real score.
func SelectTopKScored(query int, table *Table, k int) ([]Neighbor, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", ErrShapeMismatch)
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	row, err := table.Row(query)
	if err != nil {
		return nil, err
	}

	if k > len(row)-1 {
		k = len(row) - 1
	}
	if k == 0 {
		return []Neighbor{}, nil
	}

	candidates := make([]Neighbor, 0, len(row)-1)
	for j, score := range row {
		if j == query {
			continue
		}
		candidates = append(candidates, Neighbor{Index: j, Score: score})
	}

	sort.Slice(candidates, func(a, b int) bool {
		return ranksBefore(candidates[a], candidates[b])
	})

	return candidates[:k], nil
}

func ranksBefore(a, b Neighbor) bool {
	aNaN, bNaN := math.IsNaN(a.Score), math.IsNaN(b.Score)
	switch {
	case aNaN && !bNaN:
		return false
	case !aNaN && bNaN:
		return true
	case !aNaN && a.Score != b.Score:
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

package catalog

import (
	"errors"
	"fmt"

	"github.com/todmy/cinematch/pkg/models"
)

var (
	ErrTitleNotFound = errors.New("catalog: title not found")
	ErrDuplicateID   = errors.New("catalog: duplicate movie id")
	ErrBadIndex      = errors.New("catalog: item index does not match its position")
)

// Catalog is the fixed, read-only set of recommendable movies.
type Catalog struct {
	items      []models.Movie
	byTitle    map[string]int
	duplicates map[string][]int
}

// New builds a catalog and its title index. items[i].Index must equal i.
// When several items share a title, Lookup resolves to the first one and
// the full list is reported by Duplicates.
func New(items []models.Movie) (*Catalog, error) {
	c := &Catalog{
		items:      make([]models.Movie, len(items)),
		byTitle:    make(map[string]int, len(items)),
		duplicates: make(map[string][]int),
	}
	copy(c.items, items)

	ids := make(map[int64]int, len(items))
	for i, item := range c.items {
		if item.Index != i {
			return nil, fmt.Errorf("%w: item %q has index %d at position %d", ErrBadIndex, item.Title, item.Index, i)
		}
		if prev, ok := ids[item.ID]; ok {
			return nil, fmt.Errorf("%w: %d at %d and %d", ErrDuplicateID, item.ID, prev, i)
		}
		ids[item.ID] = i

		if first, ok := c.byTitle[item.Title]; ok {
			if _, seen := c.duplicates[item.Title]; !seen {
				c.duplicates[item.Title] = []int{first}
			}
			c.duplicates[item.Title] = append(c.duplicates[item.Title], i)
			continue
		}
		c.byTitle[item.Title] = i
	}

	return c, nil
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.items)
}

// At returns the item at index i
func (c *Catalog) At(i int) (models.Movie, bool) {
	if i < 0 || i >= len(c.items) {
		return models.Movie{}, false
	}
	return c.items[i], true
}

// Lookup resolves an exact title to its catalog index.
func (c *Catalog) Lookup(title string) (int, error) {
	idx, ok := c.byTitle[title]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrTitleNotFound, title)
	}
	return idx, nil
}

// Titles returns every title in catalog order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.items))
	for i, item := range c.items {
		titles[i] = item.Title
	}
	return titles
}

// Items returns a copy of the catalog entries
func (c *Catalog) Items() []models.Movie {
	out := make([]models.Movie, len(c.items))
	copy(out, c.items)
	return out
}

// Duplicates maps every title shared by more than one item to the indices
// carrying it, in catalog order.
func (c *Catalog) Duplicates() map[string][]int {
	out := make(map[string][]int, len(c.duplicates))
	for title, idx := range c.duplicates {
		out[title] = append([]int(nil), idx...)
	}
	return out
}

package models

// Movie is a single catalog entry. Index is its 0-based position in the
// catalog and the row/column it owns in the similarity table.
type Movie struct {
	Index int    `json:"index"`
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Metadata holds the display details fetched for a movie from TMDB
type Metadata struct {
	PosterURL string   `json:"poster_url"`
	Overview  string   `json:"overview"`
	Genres    []string `json:"genres"`
	Cast      []string `json:"cast"`
}

// Recommendation is one ranked result for a query movie
type Recommendation struct {
	Movie
	Score         float64   `json:"score"`
	Metadata      *Metadata `json:"metadata,omitempty"`
	MetadataError string    `json:"metadata_error,omitempty"`
}


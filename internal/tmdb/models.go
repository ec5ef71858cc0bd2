package tmdb

import (
	"errors"
	"fmt"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	PlaceholderPoster   = "https://via.placeholder.com/500x750?text=No+Image"
	DefaultOverview     = "Overview not available."
	DefaultTopCast      = 3
)

// ErrNotFound is wrapped by FetchError when TMDB has no such movie
var ErrNotFound = errors.New("tmdb: movie not found")

// FetchError reports a failed metadata lookup for one movie.
type FetchError struct {
	MovieID    int64
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb: movie %d: status %d: %v", e.MovieID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tmdb: movie %d: %v", e.MovieID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MovieResponse is the subset of GET /movie/{id} we use
type MovieResponse struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Overview   *string `json:"overview"`
	PosterPath *string `json:"poster_path"`
	Genres     []Genre `json:"genres"`
}

// Genre is a TMDB genre entry
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreditsResponse is the subset of GET /movie/{id}/credits we use
type CreditsResponse struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
}

// CastMember is one billed cast entry
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// errorResponse is TMDB's error body
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

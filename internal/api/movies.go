package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/todmy/cinematch/internal/api/respond"
	"github.com/todmy/cinematch/pkg/models"
)

// handleListMovies serves the catalog, optionally filtered by a
// case-insensitive title prefix
func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	prefix := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	movies := make([]models.Movie, 0)
	for _, m := range s.recommender.Catalog().Items() {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(m.Title), prefix) {
			continue
		}
		movies = append(movies, m)
		if limit > 0 && len(movies) == limit {
			break
		}
	}

	s.respondJSON(w, r, http.StatusOK, movies)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.movieFromPath(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, r, http.StatusOK, movie)
}

// handleSimilar returns neighbors by index without metadata
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.movieFromPath(w, r)
	if !ok {
		return
	}

	k, err := s.parseK(r.URL.Query().Get("k"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.recommender.Similar(movie.Index, k)
	if err != nil {
		s.respondLookupError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, RecommendationResponse{Query: movie, Results: results})
}

func (s *Server) movieFromPath(w http.ResponseWriter, r *http.Request) (models.Movie, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid movie index")
		return models.Movie{}, false
	}

	movie, ok := s.recommender.Catalog().At(index)
	if !ok {
		respond.Error(w, http.StatusNotFound, "movie not found")
		return models.Movie{}, false
	}
	return movie, true
}

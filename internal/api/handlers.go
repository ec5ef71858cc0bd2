package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/todmy/cinematch/internal/api/respond"
	"github.com/todmy/cinematch/internal/catalog"
	"github.com/todmy/cinematch/internal/similarity"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"movies": s.recommender.Catalog().Len(),
	})
}

// parseK reads an optional non-negative k; a missing value means the default
func (s *Server) parseK(raw string) (int, error) {
	if raw == "" {
		return s.recommender.DefaultK(), nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("k must be an integer")
	}
	if k < 0 {
		return 0, similarity.ErrInvalidK
	}
	return k, nil
}

// respondLookupError maps domain errors to status codes
func (s *Server) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrTitleNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, similarity.ErrInvalidIndex):
		respond.Error(w, http.StatusNotFound, "movie not found")
	case errors.Is(err, similarity.ErrInvalidK):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

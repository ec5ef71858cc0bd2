package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/todmy/cinematch/internal/api/respond"
	"github.com/todmy/cinematch/internal/auth"
	"github.com/todmy/cinematch/internal/similarity"
	"github.com/todmy/cinematch/pkg/models"
)

// RecommendationRequest is the POST body; K nil means the default
type RecommendationRequest struct {
	Title string `json:"title"`
	K     *int   `json:"k,omitempty"`
}

// RecommendationResponse carries the query movie and its ranked neighbors.
// Neighbors served by /movies/{index}/similar carry no metadata.
type RecommendationResponse struct {
	Query   models.Movie            `json:"query"`
	Results []models.Recommendation `json:"results"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var (
		title string
		k     int
	)

	if r.Method == http.MethodPost {
		var req RecommendationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		title = req.Title
		k = s.recommender.DefaultK()
		if req.K != nil {
			if *req.K < 0 {
				respond.Error(w, http.StatusBadRequest, similarity.ErrInvalidK.Error())
				return
			}
			k = *req.K
		}
	} else {
		title = r.URL.Query().Get("title")
		parsed, err := s.parseK(r.URL.Query().Get("k"))
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		k = parsed
	}

	if strings.TrimSpace(title) == "" {
		respond.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	query, results, err := s.recommender.Recommend(r.Context(), title, k)
	if err != nil {
		s.respondLookupError(w, r, err)
		return
	}

	event := s.log.Debug()
	if claims, ok := auth.GetUserFromContext(r.Context()); ok {
		event = event.Str("user_id", claims.UserID)
	}
	event.
		Str("title", title).
		Int("k", k).
		Int("results", len(results)).
		Msg("recommendations served")

	s.respondJSON(w, r, http.StatusOK, RecommendationResponse{Query: query, Results: results})
}

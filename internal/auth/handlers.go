package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/todmy/cinematch/internal/api/respond"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	Token string `json:"token"`
}

// Handlers serves the /auth endpoints
type Handlers struct {
	service Service
	log     zerolog.Logger
}

func NewHandlers(service Service, log zerolog.Logger) *Handlers {
	return &Handlers{service: service, log: log}
}

// Register handles POST /auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, user)
	case errors.Is(err, ErrUserExists):
		respond.Error(w, http.StatusConflict, "user already exists")
	case errors.Is(err, ErrWeakPassword):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("register user")
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
	}
}

// Login handles POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	respond.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Me handles GET /auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetUserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{
		"id":    claims.UserID,
		"email": claims.Email,
	})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return req, false
	}
	return req, true
}

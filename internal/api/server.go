package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/todmy/cinematch/internal/api/respond"
	"github.com/todmy/cinematch/internal/auth"
	"github.com/todmy/cinematch/internal/logger"
	"github.com/todmy/cinematch/internal/recommend"
)

// ServerConfig wires the HTTP layer to the loaded recommender
type ServerConfig struct {
	Recommender *recommend.Recommender
	// Auth enables the /auth routes; nil leaves them unmounted
	Auth         auth.Service
	AuthRequired bool
	StaticDir    string
	Logger       zerolog.Logger
}

type Server struct {
	router       *chi.Mux
	recommender  *recommend.Recommender
	authService  auth.Service
	authRequired bool
	staticDir    string
	log          zerolog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:       r,
		recommender:  cfg.Recommender,
		authService:  cfg.Auth,
		authRequired: cfg.AuthRequired && cfg.Auth != nil,
		staticDir:    cfg.StaticDir,
		log:          cfg.Logger,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.authService != nil {
			h := auth.NewHandlers(s.authService, s.log)
			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
			r.With(auth.Middleware(s.authService)).Get("/auth/me", h.Me)
		}

		r.Get("/movies", s.handleListMovies)
		r.Get("/movies/{index}", s.handleGetMovie)

		r.Group(func(r chi.Router) {
			switch {
			case s.authRequired:
				r.Use(auth.Middleware(s.authService))
			case s.authService != nil:
				r.Use(auth.OptionalMiddleware(s.authService))
			}

			r.Get("/movies/{index}/similar", s.handleSimilar)
			r.Get("/recommendations", s.handleRecommendations)
			r.Post("/recommendations", s.handleRecommendations)
		})
	})

	if s.staticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP makes Server usable as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := respond.JSON(w, status, data); err != nil {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("encode response")
	}
}

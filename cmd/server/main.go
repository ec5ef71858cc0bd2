package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/todmy/cinematch/internal/api"
	"github.com/todmy/cinematch/internal/auth"
	"github.com/todmy/cinematch/internal/config"
	"github.com/todmy/cinematch/internal/logger"
	"github.com/todmy/cinematch/internal/recommend"
	"github.com/todmy/cinematch/internal/storage"
	"github.com/todmy/cinematch/internal/tmdb"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.Server.Debug, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg *sql.DB
	if cfg.Data.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.Data.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		pg = db
	}

	loader, closeLoader, err := newLoader(cfg, pg)
	if err != nil {
		return err
	}
	defer closeLoader()

	start := time.Now()
	dataset, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	log.Info().
		Str("source", cfg.Data.Source).
		Int("movies", dataset.Catalog.Len()).
		Dur("took", time.Since(start)).
		Msg("dataset loaded")

	for title, indexes := range dataset.Catalog.Duplicates() {
		log.Warn().Str("title", title).Ints("indexes", indexes).Msg("duplicate title, lookups resolve to the first")
	}

	opts := []recommend.Option{
		recommend.WithLimits(cfg.Recommend.DefaultK, cfg.Recommend.MaxK),
		recommend.WithMaxConcurrent(cfg.TMDB.MaxConcurrent),
		recommend.WithLogger(log),
	}
	fetcher, closeFetcher, err := newFetcher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFetcher()
	if fetcher != nil {
		opts = append(opts, recommend.WithFetcher(fetcher))
	}

	rec, err := recommend.New(dataset.Catalog, dataset.Table, opts...)
	if err != nil {
		return fmt.Errorf("build recommender: %w", err)
	}

	var authService auth.Service
	if cfg.Auth.JWTSecret != "" && pg != nil {
		repo := auth.NewPostgresRepository(pg)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		svc, err := auth.NewJWTService(auth.Config{SecretKey: cfg.Auth.JWTSecret}, repo)
		if err != nil {
			return err
		}
		authService = svc
		log.Info().Bool("required", cfg.Auth.Required).Msg("auth enabled")
	}

	server := api.NewServer(api.ServerConfig{
		Recommender:  rec,
		Auth:         authService,
		AuthRequired: cfg.Auth.Required,
		StaticDir:    cfg.Server.StaticDir,
		Logger:       log,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting cinematch server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLoader(cfg *config.Config, pg *sql.DB) (storage.Loader, func(), error) {
	noop := func() {}

	switch cfg.Data.Source {
	case config.SourcePostgres:
		return storage.NewPostgresLoader(pg), noop, nil
	case config.SourceSQLite:
		db, err := storage.OpenSQLite(cfg.Data.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return storage.NewSQLiteLoader(db), func() { db.Close() }, nil
	default:
		return storage.NewFileLoader(cfg.Data.CatalogPath, cfg.Data.SimilarityPath), noop, nil
	}
}

// newFetcher returns nil when no TMDB token is configured
func newFetcher(ctx context.Context, cfg *config.Config, log zerolog.Logger) (tmdb.Fetcher, func(), error) {
	noop := func() {}

	if cfg.TMDB.BearerToken == "" {
		log.Warn().Msg("no TMDB bearer token, recommendations will not be enriched")
		return nil, noop, nil
	}

	client := tmdb.NewClient(cfg.TMDB.BearerToken,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithTopCast(cfg.TMDB.TopCast),
	)

	if cfg.Cache.RedisAddr != "" {
		cache, err := tmdb.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("metadata cache: redis")
		return tmdb.NewCachedFetcher(client, cache, log), func() { cache.Close() }, nil
	}

	if cfg.Cache.MemorySize <= 0 {
		return tmdb.NewCachedFetcher(client, &tmdb.NoOpCache{}, log), noop, nil
	}
	log.Info().Int("size", cfg.Cache.MemorySize).Msg("metadata cache: memory")
	return tmdb.NewCachedFetcher(client, tmdb.NewMemoryCache(cfg.Cache.MemorySize, cfg.Cache.TTL), log), noop, nil
}

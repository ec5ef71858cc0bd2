// Command import copies a file dataset (catalog + similarity table) into a
// PostgreSQL database or a SQLite bundle that the server can load with
// data.source set to postgres or sqlite. With -to table it rewrites the
// similarity table in the format named by the -out extension (.bin or .json).
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/todmy/cinematch/internal/config"
	"github.com/todmy/cinematch/internal/logger"
	"github.com/todmy/cinematch/internal/storage"
)

const targetTable = "table"

func main() {
	defaults := config.Default()

	catalogPath := flag.String("catalog", defaults.Data.CatalogPath, "Path to catalog file (.json or .csv)")
	similarityPath := flag.String("similarity", defaults.Data.SimilarityPath, "Path to similarity table (.bin or .json)")
	target := flag.String("to", config.SourceSQLite, "Destination: postgres, sqlite or table")
	out := flag.String("out", "data/similarity.bin", "Output path for -to table (.bin or .json)")
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	sqlitePath := flag.String("sqlite", "data/cinematch.db", "Path to SQLite bundle")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := logger.New(*debug, os.Stderr)

	if err := run(context.Background(), log, *catalogPath, *similarityPath, *target, *databaseURL, *sqlitePath, *out); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
}

func run(ctx context.Context, log zerolog.Logger, catalogPath, similarityPath, target, databaseURL, sqlitePath, out string) error {
	start := time.Now()
	dataset, err := storage.NewFileLoader(catalogPath, similarityPath).Load(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("movies", dataset.Catalog.Len()).Msg("file dataset loaded")

	switch target {
	case config.SourcePostgres:
		if databaseURL == "" {
			return fmt.Errorf("postgres target needs -database-url")
		}
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := db.ExecContext(ctx, storage.PostgresSchema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if err := storage.NewPostgresWriter(db).Save(ctx, dataset.Catalog, dataset.Table); err != nil {
			return err
		}
	case config.SourceSQLite:
		db, err := storage.OpenSQLite(sqlitePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.NewSQLiteWriter(db).Save(ctx, dataset.Catalog, dataset.Table); err != nil {
			return err
		}
	case targetTable:
		if err := storage.WriteTableFile(out, dataset.Table); err != nil {
			return err
		}
		log.Info().Str("path", out).Msg("similarity table written")
	default:
		return fmt.Errorf("unknown target %q", target)
	}

	log.Info().Str("target", target).Dur("took", time.Since(start)).Msg("import complete")
	return nil
}

package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"

	defaultConfigPath = "configs/server.yaml"
	defaultEnvPath    = ".env"
)

// Config is the full server configuration (configs/server.yaml)
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	TMDB      TMDBConfig      `yaml:"tmdb"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Recommend RecommendConfig `yaml:"recommend"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Debug           bool          `yaml:"debug"`
	StaticDir       string        `yaml:"static_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DataConfig struct {
	Source         string `yaml:"source"`
	CatalogPath    string `yaml:"catalog_path"`
	SimilarityPath string `yaml:"similarity_path"`
	DatabaseURL    string `yaml:"database_url"`
	SQLitePath     string `yaml:"sqlite_path"`
}

type TMDBConfig struct {
	BaseURL       string        `yaml:"base_url"`
	ImageBaseURL  string        `yaml:"image_base_url"`
	BearerToken   string        `yaml:"bearer_token"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	TopCast       int           `yaml:"top_cast"`
}

type CacheConfig struct {
	RedisAddr  string        `yaml:"redis_addr"`
	TTL        time.Duration `yaml:"ttl"`
	MemorySize int           `yaml:"memory_size"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Required  bool   `yaml:"required"`
}

type RecommendConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			StaticDir:       "web/dist",
			ShutdownTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			Source:         SourceFile,
			CatalogPath:    "data/movies.json",
			SimilarityPath: "data/similarity.bin",
		},
		TMDB: TMDBConfig{
			BaseURL:       "https://api.themoviedb.org/3",
			ImageBaseURL:  "https://image.tmdb.org/t/p/w500",
			Timeout:       10 * time.Second,
			MaxConcurrent: 5,
			TopCast:       3,
		},
		Cache: CacheConfig{
			TTL:        24 * time.Hour,
			MemorySize: 1000,
		},
		Recommend: RecommendConfig{
			DefaultK: 5,
			MaxK:     50,
		},
	}
}

// Load builds the configuration. Priority: flags > environment > .env file
// > YAML file > defaults. A missing default config or .env file is not an
// error; a missing file named explicitly by flag is.
func Load(args []string) (*Config, error) {
	fset := flag.NewFlagSet("cinematch", flag.ContinueOnError)
	configPath := fset.String("config", defaultConfigPath, "Path to server config file")
	envPath := fset.String("env-file", defaultEnvPath, "Path to .env file")
	port := fset.String("port", "", "Server port")
	debug := fset.Bool("debug", false, "Enable debug logging")
	source := fset.String("data-source", "", "Dataset source: file, postgres or sqlite")
	catalogPath := fset.String("catalog", "", "Path to catalog file (.json or .csv)")
	similarityPath := fset.String("similarity", "", "Path to similarity table (.bin or .json)")
	databaseURL := fset.String("database-url", "", "PostgreSQL connection string")
	sqlitePath := fset.String("sqlite", "", "Path to SQLite bundle")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	explicit := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg := Default()

	if err := cfg.loadYAML(*configPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit["config"] {
			return nil, err
		}
	}

	dotenv, err := godotenv.Read(*envPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit["env-file"] {
			return nil, fmt.Errorf("read env file: %w", err)
		}
		dotenv = map[string]string{}
	}
	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}

	if *port != "" {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.Server.Debug = true
	}
	if *source != "" {
		cfg.Data.Source = *source
	}
	if *catalogPath != "" {
		cfg.Data.CatalogPath = *catalogPath
	}
	if *similarityPath != "" {
		cfg.Data.SimilarityPath = *similarityPath
	}
	if *databaseURL != "" {
		cfg.Data.DatabaseURL = *databaseURL
	}
	if *sqlitePath != "" {
		cfg.Data.SQLitePath = *sqlitePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"PORT", &c.Server.Port},
		{"STATIC_DIR", &c.Server.StaticDir},
		{"DATA_SOURCE", &c.Data.Source},
		{"CATALOG_PATH", &c.Data.CatalogPath},
		{"SIMILARITY_PATH", &c.Data.SimilarityPath},
		{"DATABASE_URL", &c.Data.DatabaseURL},
		{"SQLITE_PATH", &c.Data.SQLitePath},
		{"TMDB_BASE_URL", &c.TMDB.BaseURL},
		{"TMDB_IMAGE_BASE_URL", &c.TMDB.ImageBaseURL},
		// BEARER_TOKEN is the name older .env files use.
		{"BEARER_TOKEN", &c.TMDB.BearerToken},
		{"TMDB_BEARER_TOKEN", &c.TMDB.BearerToken},
		{"REDIS_ADDR", &c.Cache.RedisAddr},
		{"JWT_SECRET", &c.Auth.JWTSecret},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"DEBUG", &c.Server.Debug},
		{"AUTH_REQUIRED", &c.Auth.Required},
	}
	for _, b := range bools {
		if v, ok := lookup(b.key); ok && v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DEFAULT_K", &c.Recommend.DefaultK},
		{"MAX_K", &c.Recommend.MaxK},
		{"TMDB_MAX_CONCURRENT", &c.TMDB.MaxConcurrent},
	}
	for _, n := range ints {
		if v, ok := lookup(n.key); ok && v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", n.key, err)
			}
			*n.dst = parsed
		}
	}

	if v, ok := lookup("CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}

	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFile:
		if c.Data.CatalogPath == "" || c.Data.SimilarityPath == "" {
			return errors.New("config: file source needs catalog_path and similarity_path")
		}
	case SourcePostgres:
		if c.Data.DatabaseURL == "" {
			return errors.New("config: postgres source needs database_url")
		}
	case SourceSQLite:
		if c.Data.SQLitePath == "" {
			return errors.New("config: sqlite source needs sqlite_path")
		}
	default:
		return fmt.Errorf("config: unknown data source %q", c.Data.Source)
	}

	if c.Recommend.DefaultK < 0 {
		return fmt.Errorf("config: default_k must be >= 0, got %d", c.Recommend.DefaultK)
	}
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("config: max_k (%d) is below default_k (%d)", c.Recommend.MaxK, c.Recommend.DefaultK)
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("config: auth.required needs jwt_secret")
	}
	if c.Auth.Required && c.Data.DatabaseURL == "" {
		return errors.New("config: auth.required needs database_url for user accounts")
	}
	if c.Server.Port == "" {
		return errors.New("config: server port is empty")
	}

	return nil
}

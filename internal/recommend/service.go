package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/todmy/cinematch/internal/catalog"
	"github.com/todmy/cinematch/internal/similarity"
	"github.com/todmy/cinematch/internal/tmdb"
	"github.com/todmy/cinematch/pkg/models"
)

const (
	DefaultK             = 5
	DefaultMaxK          = 50
	defaultMaxConcurrent = 5
)

// Recommender holds the loaded catalog and similarity table. It is built
// once at startup and is safe for concurrent use.
type Recommender struct {
	catalog       *catalog.Catalog
	table         *similarity.Table
	fetcher       tmdb.Fetcher
	defaultK      int
	maxK          int
	maxConcurrent int
	log           zerolog.Logger
}

// Option configures the Recommender
type Option func(*Recommender)

// WithFetcher enables metadata enrichment
func WithFetcher(f tmdb.Fetcher) Option {
	return func(r *Recommender) {
		r.fetcher = f
	}
}

// WithLimits sets the k used when a caller does not pass one and the
// largest k served
func WithLimits(defaultK, maxK int) Option {
	return func(r *Recommender) {
		if defaultK >= 0 {
			r.defaultK = defaultK
		}
		if maxK > 0 {
			r.maxK = maxK
		}
	}
}

// WithMaxConcurrent bounds the number of in-flight metadata lookups
func WithMaxConcurrent(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.maxConcurrent = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) {
		r.log = l
	}
}

// New creates a Recommender. The table must be aligned with the catalog.
func New(cat *catalog.Catalog, table *similarity.Table, opts ...Option) (*Recommender, error) {
	if cat == nil {
		return nil, fmt.Errorf("recommend: nil catalog")
	}
	if err := table.ValidateAgainst(cat.Len()); err != nil {
		return nil, err
	}

	r := &Recommender{
		catalog:       cat,
		table:         table,
		defaultK:      DefaultK,
		maxK:          DefaultMaxK,
		maxConcurrent: defaultMaxConcurrent,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Catalog returns the catalog served by this recommender
func (r *Recommender) Catalog() *catalog.Catalog {
	return r.catalog
}

// Titles returns every catalog title in index order
func (r *Recommender) Titles() []string {
	return r.catalog.Titles()
}

// DefaultK returns the number of results served when a caller omits k
func (r *Recommender) DefaultK() int {
	return r.defaultK
}

// Enriches reports whether results carry TMDB metadata
func (r *Recommender) Enriches() bool {
	return r.fetcher != nil
}

// Similar returns the k movies most similar to the one at index, without
// metadata. k above the configured maximum is clamped.
func (r *Recommender) Similar(index, k int) ([]models.Recommendation, error) {
	if k > r.maxK {
		k = r.maxK
	}

	neighbors, err := similarity.SelectTopKScored(index, r.table, k)
	if err != nil {
		return nil, err
	}

	results := make([]models.Recommendation, len(neighbors))
	for i, n := range neighbors {
		movie, _ := r.catalog.At(n.Index)
		results[i] = models.Recommendation{Movie: movie, Score: n.Score}
	}
	return results, nil
}

// Recommend resolves title, selects its k nearest movies and enriches each
// with metadata. A failed lookup is reported on that entry only.
func (r *Recommender) Recommend(ctx context.Context, title string, k int) (models.Movie, []models.Recommendation, error) {
	index, err := r.catalog.Lookup(title)
	if err != nil {
		return models.Movie{}, nil, err
	}
	query, _ := r.catalog.At(index)

	results, err := r.Similar(index, k)
	if err != nil {
		return models.Movie{}, nil, err
	}

	if r.fetcher != nil {
		r.enrich(ctx, results)
	}

	return query, results, nil
}

func (r *Recommender) enrich(ctx context.Context, results []models.Recommendation) {
	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)

	for i := range results {
		i := i
		g.Go(func() error {
			md, err := r.fetcher.FetchMetadata(ctx, results[i].ID)
			if err != nil {
				r.log.Warn().Err(err).
					Int64("movie_id", results[i].ID).
					Str("title", results[i].Title).
					Msg("metadata lookup failed")
				results[i].MetadataError = err.Error()
				return nil
			}
			results[i].Metadata = md
			return nil
		})
	}

	_ = g.Wait()
}

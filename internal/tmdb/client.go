package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/todmy/cinematch/pkg/models"
)

const defaultTimeout = 10 * time.Second

// Fetcher looks up display metadata for a movie by its TMDB id.
type Fetcher interface {
	FetchMetadata(ctx context.Context, movieID int64) (*models.Metadata, error)
}

// Client fetches movie details and credits from the TMDB v3 API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	imageBaseURL string
	bearerToken  string
	topCast      int
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithImageBaseURL sets the prefix joined with poster paths
func WithImageBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.imageBaseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTopCast sets how many billed cast members are kept
func WithTopCast(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.topCast = n
		}
	}
}

// NewClient creates a new TMDB client authenticated with a v4 read token
func NewClient(bearerToken string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:      DefaultBaseURL,
		imageBaseURL: DefaultImageBaseURL,
		bearerToken:  bearerToken,
		topCast:      DefaultTopCast,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchMetadata requests the movie details and credits concurrently and
// folds them into display metadata.
func (c *Client) FetchMetadata(ctx context.Context, movieID int64) (*models.Metadata, error) {
	var movie MovieResponse
	var credits CreditsResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, movieID, fmt.Sprintf("/movie/%d", movieID), &movie)
	})
	g.Go(func() error {
		return c.get(gctx, movieID, fmt.Sprintf("/movie/%d/credits", movieID), &credits)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.toMetadata(&movie, &credits), nil
}

func (c *Client) toMetadata(movie *MovieResponse, credits *CreditsResponse) *models.Metadata {
	md := &models.Metadata{
		PosterURL: PlaceholderPoster,
		Overview:  DefaultOverview,
		Genres:    make([]string, 0, len(movie.Genres)),
		Cast:      make([]string, 0, c.topCast),
	}

	if movie.PosterPath != nil && *movie.PosterPath != "" {
		md.PosterURL = c.imageBaseURL + *movie.PosterPath
	}
	if movie.Overview != nil {
		md.Overview = *movie.Overview
	}
	for _, g := range movie.Genres {
		md.Genres = append(md.Genres, g.Name)
	}
	for i, member := range credits.Cast {
		if i >= c.topCast {
			break
		}
		md.Cast = append(md.Cast, member.Name)
	}

	return md
}

func (c *Client) get(ctx context.Context, movieID int64, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{MovieID: movieID, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{MovieID: movieID, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{MovieID: movieID, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &FetchError{MovieID: movieID, StatusCode: resp.StatusCode, Err: apiError(resp.StatusCode, body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{MovieID: movieID, StatusCode: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	return nil
}

func apiError(status int, body []byte) error {
	if status == http.StatusNotFound {
		return ErrNotFound
	}

	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.StatusMessage != "" {
		return fmt.Errorf("API error: %s", e.StatusMessage)
	}
	return fmt.Errorf("API error: %s", string(body))
}

package tmdb

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/todmy/cinematch/pkg/models"
)

// Cache defines the interface for a metadata cache
type Cache interface {
	// Get retrieves metadata from cache
	Get(ctx context.Context, movieID int64) (*models.Metadata, bool, error)

	// Set stores metadata in cache
	Set(ctx context.Context, movieID int64, md *models.Metadata) error
}

// CachedFetcher wraps a Fetcher with caching. Cache failures are logged and
// never fail a lookup.
type CachedFetcher struct {
	fetcher Fetcher
	cache   Cache
	log     zerolog.Logger
}

// NewCachedFetcher creates a new cached metadata fetcher
func NewCachedFetcher(fetcher Fetcher, cache Cache, log zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{
		fetcher: fetcher,
		cache:   cache,
		log:     log,
	}
}

// FetchMetadata returns cached metadata or fetches and stores it
func (c *CachedFetcher) FetchMetadata(ctx context.Context, movieID int64) (*models.Metadata, error) {
	md, ok, err := c.cache.Get(ctx, movieID)
	if err != nil {
		c.log.Warn().Err(err).Int64("movie_id", movieID).Msg("metadata cache read failed")
	}
	if ok {
		return md, nil
	}

	md, err = c.fetcher.FetchMetadata(ctx, movieID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, movieID, md); err != nil {
		c.log.Warn().Err(err).Int64("movie_id", movieID).Msg("metadata cache write failed")
	}

	return md, nil
}

// NoOpCache is a cache that doesn't cache anything
type NoOpCache struct{}

func (c *NoOpCache) Get(ctx context.Context, movieID int64) (*models.Metadata, bool, error) {
	return nil, false, nil
}

func (c *NoOpCache) Set(ctx context.Context, movieID int64, md *models.Metadata) error {
	return nil
}

// MemoryCache is a bounded in-process cache with per-entry expiry. When
// full, the least recently read entry is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[int64]*cacheEntry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	md         *models.Metadata
	expireTime time.Time
	accessTime time.Time
}

// NewMemoryCache creates a memory cache holding at most maxSize entries
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{
		entries: make(map[int64]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, movieID int64) (*models.Metadata, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[movieID]
	if !ok {
		return nil, false, nil
	}

	now := c.now()
	if c.ttl > 0 && now.After(entry.expireTime) {
		delete(c.entries, movieID)
		return nil, false, nil
	}
	entry.accessTime = now

	return entry.md, true, nil
}

func (c *MemoryCache) Set(_ context.Context, movieID int64, md *models.Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[movieID]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.entries[movieID] = &cacheEntry{
		md:         md,
		expireTime: now.Add(c.ttl),
		accessTime: now,
	}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) evictOldest() {
	var oldestKey int64
	var oldestTime time.Time
	first := true

	for key, entry := range c.entries {
		if first || entry.accessTime.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.accessTime
			first = false
		}
	}

	if !first {
		delete(c.entries, oldestKey)
	}
}

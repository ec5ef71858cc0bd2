package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/todmy/cinematch/pkg/models"
)

const redisKeyPrefix = "tmdb:metadata:"

// RedisCache stores metadata as JSON values shared by every server replica
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(movieID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, movieID)
}

func (c *RedisCache) Get(ctx context.Context, movieID int64) (*models.Metadata, bool, error) {
	val, err := c.client.Get(ctx, redisKey(movieID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var md models.Metadata
	if err := json.Unmarshal(val, &md); err != nil {
		return nil, false, fmt.Errorf("decode cached metadata: %w", err)
	}
	return &md, true, nil
}

func (c *RedisCache) Set(ctx context.Context, movieID int64, md *models.Metadata) error {
	val, err := json.Marshal(md)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(movieID), val, c.ttl).Err()
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

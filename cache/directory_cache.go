package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	config "github.com/anjiri1684/tutor_connect/configs"
	"github.com/redis/go-redis/v9"
)

const generationKey = "tutors:generation"

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// DirectoryCache stores tutor directory query results in Redis. Entries are
// namespaced by a generation counter; Invalidate bumps the counter so every
// older entry becomes unreachable and expires on its own TTL.
type DirectoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDirectoryCache(client *redis.Client, ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DirectoryCache{client: client, ttl: ttl}
}

// Get decodes the cached value into dst and reports whether it was found,
// along with the generation it looked under. Pass that generation to Set so a
// result computed before an Invalidate is filed under the stale namespace.
func (c *DirectoryCache) Get(ctx context.Context, key string, dst any) (bool, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return false, 0, err
	}

	val, err := c.client.Get(ctx, entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, gen, nil
	}
	if err != nil {
		return false, gen, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}

	if err := json.Unmarshal(val, dst); err != nil {
		return false, gen, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, gen, nil
}

// Set stores value under the generation returned by the Get that missed.
func (c *DirectoryCache) Set(ctx context.Context, key string, gen int64, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, entryKey(gen, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (c *DirectoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump directory generation: %w", err)
	}
	return nil
}

func (c *DirectoryCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read directory generation: %w", err)
	}
	return gen, nil
}

func entryKey(gen int64, key string) string {
	return fmt.Sprintf("tutors:v%d:%s", gen, key)
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

/* Redis implementation of usersettings.LangCache.
 * Used when several gateway replicas should share one settings cache.
 */

const (
	keyPrefix = "user:langs" // Key naming: user:langs:{user_id}
	langTTL   = 30 * time.Minute
)

type Cache struct {
	client *redis.Client
}

// NewCache creates a Redis-backed language cache.
func NewCache(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Get returns the cached language codes for a user.
func (c *Cache) Get(ctx context.Context, userID int64) ([]string, bool, error) {
	key := fmt.Sprintf("%s:%d", keyPrefix, userID)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting cached langs: %w", err)
	}

	var langs []string
	if err := json.Unmarshal([]byte(data), &langs); err != nil {
		return nil, false, fmt.Errorf("decoding cached langs: %w", err)
	}
	return langs, true, nil
}

// Set stores a user's language codes with the cache TTL.
func (c *Cache) Set(ctx context.Context, userID int64, langs []string) error {
	key := fmt.Sprintf("%s:%d", keyPrefix, userID)

	data, err := json.Marshal(langs)
	if err != nil {
		return fmt.Errorf("marshaling langs: %w", err)
	}

	if err := c.client.Set(ctx, key, data, langTTL).Err(); err != nil {
		return fmt.Errorf("setting cached langs: %w", err)
	}
	return nil
}

// Invalidate drops a user's cached language codes.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("%s:%d", keyPrefix, userID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("invalidating cached langs: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

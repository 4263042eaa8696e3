package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

/* In-process implementation of usersettings.LangCache for single-replica
 * deployments; entries expire after the same TTL the Redis backend uses.
 */

const (
	cacheSize = 4096
	langTTL   = 30 * time.Minute
)

type Cache struct {
	lru *expirable.LRU[int64, []string]
}

// NewCache creates an in-process language cache.
func NewCache() *Cache {
	return &Cache{
		lru: expirable.NewLRU[int64, []string](cacheSize, nil, langTTL),
	}
}

// Get returns the cached language codes for a user.
func (c *Cache) Get(_ context.Context, userID int64) ([]string, bool, error) {
	langs, ok := c.lru.Get(userID)
	return langs, ok, nil
}

// Set stores a user's language codes.
func (c *Cache) Set(_ context.Context, userID int64, langs []string) error {
	c.lru.Add(userID, langs)
	return nil
}

// Invalidate drops a user's cached language codes.
func (c *Cache) Invalidate(_ context.Context, userID int64) error {
	c.lru.Remove(userID)
	return nil
}

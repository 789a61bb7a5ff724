package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// LRUCache is a bounded in-process OwnerCache. It is safe for concurrent use.
type LRUCache struct {
	entries *lru.Cache[string, models.Owner]
}

// NewLRUCache creates a cache holding at most size owners.
func NewLRUCache(size int) (*LRUCache, error) {
	entries, err := lru.New[string, models.Owner](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner LRU of size %d: %w", size, err)
	}
	return &LRUCache{entries: entries}, nil
}

func (c *LRUCache) Get(_ context.Context, ownerID string) (models.Owner, bool) {
	return c.entries.Get(ownerID)
}

func (c *LRUCache) Add(_ context.Context, owner models.Owner) {
	c.entries.Add(owner.ID, owner)
}

// Len returns the number of cached owners.
func (c *LRUCache) Len() int { return c.entries.Len() }

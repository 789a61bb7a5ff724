package cache

import (
	"context"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// TieredCache checks a local cache before a shared one and promotes shared hits.
type TieredCache struct {
	local  OwnerCache
	shared OwnerCache
}

// NewTieredCache composes local and shared. A nil shared tier is allowed.
func NewTieredCache(local, shared OwnerCache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

func (c *TieredCache) Get(ctx context.Context, ownerID string) (models.Owner, bool) {
	if owner, ok := c.local.Get(ctx, ownerID); ok {
		return owner, true
	}
	if c.shared == nil {
		return models.Owner{}, false
	}
	owner, ok := c.shared.Get(ctx, ownerID)
	if ok {
		c.local.Add(ctx, owner)
	}
	return owner, ok
}

func (c *TieredCache) Add(ctx context.Context, owner models.Owner) {
	c.local.Add(ctx, owner)
	if c.shared != nil {
		c.shared.Add(ctx, owner)
	}
}

// NewFactory returns a Factory producing a size-bounded LRU per
// subscription, layered over shared when it is non-nil.
func NewFactory(size int, shared OwnerCache) (Factory, error) {
	if _, err := NewLRUCache(size); err != nil {
		return nil, err
	}
	return func() OwnerCache {
		local, _ := NewLRUCache(size)
		if shared == nil {
			return local
		}
		return NewTieredCache(local, shared)
	}, nil
}

package cache

import (
	"context"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// OwnerCache maps an owner id to the display data shown on feed cards.
// Lookups never fail; a backend error counts as a miss.
type OwnerCache interface {
	Get(ctx context.Context, ownerID string) (models.Owner, bool)
	Add(ctx context.Context, owner models.Owner)
}

// Factory builds a fresh cache for one feed subscription.
type Factory func() OwnerCache

package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/quickbite/cart-service/internal/cache"
	"github.com/quickbite/cart-service/internal/repository"
)

// Coordinator flushes cache-resident carts back into the durable store. It is
// the only writer of cache state into the database.
type Coordinator struct {
	cache cache.CartCache
	repo  repository.CartRepository
}

func NewCoordinator(c cache.CartCache, repo repository.CartRepository) *Coordinator {
	return &Coordinator{
		cache: c,
		repo:  repo,
	}
}

// SyncUser replaces the user's durable lines with whatever the cache holds
// right now. A user with no durable cart row fails fast with
// repository.ErrCartNotFound; the row must exist before the first sync.
func (c *Coordinator) SyncUser(ctx context.Context, userID int64) error {
	items, err := c.cache.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load cached cart: %w", err)
	}

	cart, err := c.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if err := c.repo.ReplaceLines(ctx, cart.ID, items); err != nil {
		return fmt.Errorf("replace cart lines: %w", err)
	}
	return nil
}

// Failure records one user that could not be synced during a sweep. A key
// that does not parse has UserID zero and carries the extraction error.
type Failure struct {
	Key    string
	UserID int64
	Err    error
}

// SyncAll sweeps every cart key currently present in the cache. One user's
// failure never aborts the sweep; the returned error covers only the key
// enumeration itself.
func (c *Coordinator) SyncAll(ctx context.Context) ([]Failure, error) {
	keys, err := c.cache.ActiveCartKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan cart keys: %w", err)
	}

	var failures []Failure
	for _, key := range keys {
		userID, e2 := cache.UserIDFromKey(key)
		if e2 != nil {
			log.Printf("skipping unparseable cart key %q: %v", key, e2)
			failures = append(failures, Failure{Key: key, Err: e2})
			continue
		}

		if e2 := c.SyncUser(ctx, userID); e2 != nil {
			log.Printf("cart sync failed for user %d: %v", userID, e2)
			failures = append(failures, Failure{Key: key, UserID: userID, Err: e2})
		}
	}
	return failures, nil
}

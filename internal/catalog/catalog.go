package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Menu is the slice of catalog data this service needs: durable cart lines
// keep only the menu id, so the owning store must be re-resolved when the
// cache is repopulated.
type Menu struct {
	ID      uuid.UUID `json:"id"`
	StoreID uuid.UUID `json:"store_id"`
	Name    string    `json:"name"`
	Price   int64     `json:"price"`
}

// MenuResolver and UserDirectory are consumer-defined contracts; the catalog
// and identity subsystems live in other services.
type MenuResolver interface {
	ResolveMenu(ctx context.Context, menuID uuid.UUID) (*Menu, error)
}

type UserDirectory interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
}

var ErrMenuNotFound = errors.New("menu not found")

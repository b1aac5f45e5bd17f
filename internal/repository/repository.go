package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/quickbite/cart-service/internal/domain"
)

// CartRepository is the durable side of the cart. It is the source of truth
// whenever the cache entry for a user is cold or has expired.
type CartRepository interface {
	GetCartByUserID(ctx context.Context, userID int64) (*domain.Cart, error)
	CreateCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error)
	ReplaceLines(ctx context.Context, cartID uuid.UUID, items []domain.CartItem) error
}

var ErrCartNotFound = errors.New("cart not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

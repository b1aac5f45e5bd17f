package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is the cache-resident shape of one cart line. A user's cart holds
// at most one item per menu, and all items share a single store.
type CartItem struct {
	MenuID   uuid.UUID `json:"menu_id"`
	StoreID  uuid.UUID `json:"store_id"`
	Quantity int       `json:"quantity"`
}

// Cart is the durable cart row, one per user. It is never deleted, only its
// lines are replaced.
type Cart struct {
	ID        uuid.UUID
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a durable line row. Store membership is not stored here; it is
// recovered from the catalog when the cache is repopulated.
type CartLine struct {
	ID       uuid.UUID
	CartID   uuid.UUID
	MenuID   uuid.UUID
	Quantity int
}

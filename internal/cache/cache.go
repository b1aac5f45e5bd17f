package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/quickbite/cart-service/internal/domain"
)

// CartCache holds the live copy of a user's cart while a session is active.
// A missing key and a known-empty cart are different states: Load returns an
// empty slice for both, Exists tells them apart.
type CartCache interface {
	Save(ctx context.Context, userID int64, items []domain.CartItem) error
	Load(ctx context.Context, userID int64) ([]domain.CartItem, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	RemoveItem(ctx context.Context, userID int64, menuID uuid.UUID) error
	Clear(ctx context.Context, userID int64) error
	ActiveCartKeys(ctx context.Context) ([]string, error)
}

var (
	ErrMalformedKey          = errors.New("malformed cart key")
	ErrUnknownPayloadVersion = errors.New("unknown cart payload version")
)

const keyPrefix = "cart:"

func cartKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

// UserIDFromKey recovers the user id from a cache key produced by cartKey.
// Keys found during a full scan may not be ours to parse, so failure is a
// distinct error rather than a silent skip.
func UserIDFromKey(key string) (int64, error) {
	raw, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	return id, nil
}

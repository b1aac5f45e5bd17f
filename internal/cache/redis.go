package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickbite/cart-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Each cart lives in one hash keyed cart:<userID>, one field per menu id.
// An empty-but-loaded cart is stored as a plain string at the same key; the
// key type is what distinguishes the empty marker from a populated hash.
const emptyMarker = ""

// payloadVersion is stored inside every serialized item so a schema change
// surfaces as a decode error instead of garbage fields.
const payloadVersion = 1

type cartItemPayload struct {
	Version  int       `json:"v"`
	MenuID   uuid.UUID `json:"menu_id"`
	StoreID  uuid.UUID `json:"store_id"`
	Quantity int       `json:"quantity"`
}

func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{
		client: client,
		ttl:    30 * time.Minute,
	}
}

type RedisCartCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Save replaces the user's whole cart in a single MULTI/EXEC round trip and
// refreshes the TTL. An empty item set writes the empty marker instead of
// leaving the key absent.
func (r *RedisCartCache) Save(ctx context.Context, userID int64, items []domain.CartItem) error {
	key := cartKey(userID)

	fields := make(map[string]interface{}, len(items))
	for _, item := range items {
		raw, err := json.Marshal(cartItemPayload{
			Version:  payloadVersion,
			MenuID:   item.MenuID,
			StoreID:  item.StoreID,
			Quantity: item.Quantity,
		})
		if err != nil {
			return fmt.Errorf("encode cart item: %w", err)
		}
		fields[item.MenuID.String()] = raw
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) == 0 {
			pipe.Set(ctx, key, emptyMarker, r.ttl)
			return nil
		}
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save failed: %w", err)
	}
	return nil
}

// Load returns the cached items. Both a missing key and the empty marker come
// back as an empty slice; callers that care about the difference use Exists.
func (r *RedisCartCache) Load(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	key := cartKey(userID)

	keyType, err := r.client.Type(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis type failed: %w", err)
	}
	if keyType == "none" || keyType == "string" {
		return []domain.CartItem{}, nil
	}

	vals, err := r.client.HVals(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load failed: %w", err)
	}

	items := make([]domain.CartItem, 0, len(vals))
	for _, v := range vals {
		var payload cartItemPayload
		if e2 := json.Unmarshal([]byte(v), &payload); e2 != nil {
			return nil, fmt.Errorf("decode cart item: %w", e2)
		}
		if payload.Version != payloadVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnknownPayloadVersion, payload.Version)
		}
		items = append(items, domain.CartItem{
			MenuID:   payload.MenuID,
			StoreID:  payload.StoreID,
			Quantity: payload.Quantity,
		})
	}
	return items, nil
}

func (r *RedisCartCache) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := r.client.Exists(ctx, cartKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// RemoveItem deletes one hash field without rewriting the rest of the cart.
// Removing the last line converts the key into the empty marker so the cart
// still reads as loaded-and-empty.
func (r *RedisCartCache) RemoveItem(ctx context.Context, userID int64, menuID uuid.UUID) error {
	key := cartKey(userID)

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis exists failed: %w", err)
	}
	if n == 0 {
		return nil
	}

	keyType, err := r.client.Type(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis type failed: %w", err)
	}
	if keyType == "string" {
		if e2 := r.client.Expire(ctx, key, r.ttl).Err(); e2 != nil {
			return fmt.Errorf("redis expire failed: %w", e2)
		}
		return nil
	}

	size, err := r.client.HLen(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis hlen failed: %w", err)
	}

	removed, err := r.client.HDel(ctx, key, menuID.String()).Result()
	if err != nil {
		return fmt.Errorf("redis delete item failed: %w", err)
	}

	if removed > 0 && size == 1 {
		if e2 := r.client.Set(ctx, key, emptyMarker, r.ttl).Err(); e2 != nil {
			return fmt.Errorf("redis save failed: %w", e2)
		}
		return nil
	}

	if e2 := r.client.Expire(ctx, key, r.ttl).Err(); e2 != nil {
		return fmt.Errorf("redis expire failed: %w", e2)
	}
	return nil
}

func (r *RedisCartCache) Clear(ctx context.Context, userID int64) error {
	return r.Save(ctx, userID, nil)
}

// ActiveCartKeys walks the current key space once with SCAN. The snapshot is
// not stable under concurrent mutation; the sweep that consumes it tolerates
// keys that vanish before they are synced.
func (r *RedisCartCache) ActiveCartKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return keys, nil
}

package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/quickbite/cart-service/internal/cache"
	"github.com/quickbite/cart-service/internal/repository"
	cartsync "github.com/quickbite/cart-service/internal/sync"
	"github.com/segmentio/kafka-go"
)

// OrderPlacedEvent mirrors the payload the order subsystem publishes once it
// has read the cart and created an order.
type OrderPlacedEvent struct {
	OrderID string `json:"order_id"`
	UserID  int64  `json:"user_id"`
}

// Consumer empties a user's cart after their order is placed: the cache entry
// becomes the known-empty marker and the durable lines are flushed to match.
type Consumer struct {
	cache       cache.CartCache
	coordinator *cartsync.Coordinator
	reader      *kafka.Reader
}

func NewConsumer(c cache.CartCache, coordinator *cartsync.Coordinator, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-events",
		GroupID:  "cart-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{c, coordinator, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	err := c.reader.Close()
	if err != nil {
		fmt.Printf("error closing kafka reader: %v\n", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event OrderPlacedEvent
	if errUnmarshal := json.Unmarshal(m.Value, &event); errUnmarshal != nil {
		log.Printf("error parsing message: %v", errUnmarshal)
		return
	}
	if event.UserID <= 0 {
		log.Printf("missing or invalid user_id in order event")
		return
	}

	c.handleOrderPlaced(ctx, event)
}

func (c *Consumer) handleOrderPlaced(ctx context.Context, event OrderPlacedEvent) {
	if errClear := c.cache.Clear(ctx, event.UserID); errClear != nil {
		log.Printf("failed to clear cart for user %d: %v", event.UserID, errClear)
		return
	}

	errSync := c.coordinator.SyncUser(ctx, event.UserID)
	if errSync != nil && !errors.Is(errSync, repository.ErrCartNotFound) {
		log.Printf("failed to sync cart for user %d: %v", event.UserID, errSync)
	}
}

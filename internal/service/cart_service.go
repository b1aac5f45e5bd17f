package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/quickbite/cart-service/internal/cache"
	"github.com/quickbite/cart-service/internal/catalog"
	"github.com/quickbite/cart-service/internal/domain"
	"github.com/quickbite/cart-service/internal/repository"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// CartService enforces the cart invariants on top of the cache, falling back
// to the durable store only when the cache entry for a user is cold.
//
// Mutations for one user are serialized through a per-user lock, so two
// concurrent read-modify-write cycles in this process cannot silently drop
// each other's lines. Mutations arriving at different processes still race;
// the last Save wins.
type CartService struct {
	cache   cache.CartCache
	repo    repository.CartRepository
	catalog catalog.MenuResolver
	sfg     singleflight.Group // Prevents cache stampede on load-through
	locks   sync.Map           // userID -> *sync.Mutex
}

func NewCartService(c cache.CartCache, repo repository.CartRepository, resolver catalog.MenuResolver) *CartService {
	return &CartService{
		cache:   c,
		repo:    repo,
		catalog: resolver,
	}
}

// AddItem merges the quantity into an existing line for the same menu, or
// appends a new line. A cart only ever holds one store's menus: an item from
// a different store discards everything already in the cart.
func (s *CartService) AddItem(ctx context.Context, userID int64, menuID, storeID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	items, err := s.loadItems(ctx, userID, true)
	if err != nil {
		return err
	}

	if len(items) > 0 && items[0].StoreID != storeID {
		items = items[:0]
	}

	merged := false
	for i := range items {
		if items[i].MenuID == menuID {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, domain.CartItem{MenuID: menuID, StoreID: storeID, Quantity: quantity})
	}

	return s.cache.Save(ctx, userID, items)
}

// UpdateItem overwrites the quantity of an existing line. A menu that is not
// in the cart is a no-op; the write-back still refreshes the TTL.
func (s *CartService) UpdateItem(ctx context.Context, userID int64, menuID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	items, err := s.loadItems(ctx, userID, false)
	if err != nil {
		return err
	}

	for i := range items {
		if items[i].MenuID == menuID {
			items[i].Quantity = quantity
			break
		}
	}

	return s.cache.Save(ctx, userID, items)
}

func (s *CartService) RemoveItem(ctx context.Context, userID int64, menuID uuid.UUID) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.cache.RemoveItem(ctx, userID, menuID)
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.cache.Clear(ctx, userID)
}

// GetCart returns the user's current lines. A cold cache is populated from
// the durable store first, so this read writes; checkout reads the cache, not
// the database.
func (s *CartService) GetCart(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		return s.loadItems(ctx, userID, false)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.CartItem), nil
}

// loadItems reads the cache, populating it from the durable store when the
// key is absent. createCart additionally creates the user's durable cart row
// on first use, so a later sync has a row to attach lines to.
func (s *CartService) loadItems(ctx context.Context, userID int64, createCart bool) ([]domain.CartItem, error) {
	exists, err := s.cache.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if e2 := s.populate(ctx, userID, createCart); e2 != nil {
			return nil, e2
		}
	}
	return s.cache.Load(ctx, userID)
}

func (s *CartService) populate(ctx context.Context, userID int64, createCart bool) error {
	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		if !createCart {
			return nil
		}
		cart, err = s.repo.CreateCart(ctx, userID)
		if err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		log.Printf("created durable cart for user %d", userID)
		return s.cache.Save(ctx, userID, nil)
	}
	if err != nil {
		return err
	}

	lines, err := s.repo.GetLines(ctx, cart.ID)
	if err != nil {
		return err
	}

	items := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		menu, e2 := s.catalog.ResolveMenu(ctx, line.MenuID)
		if e2 != nil {
			return fmt.Errorf("resolve menu %s: %w", line.MenuID, e2)
		}
		items = append(items, domain.CartItem{
			MenuID:   line.MenuID,
			StoreID:  menu.StoreID,
			Quantity: line.Quantity,
		})
	}

	return s.cache.Save(ctx, userID, items)
}

func (s *CartService) userLock(userID int64) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quickbite/cart-service/internal/catalog"
	"github.com/quickbite/cart-service/internal/domain"
	"github.com/quickbite/cart-service/internal/service"
)

// CartService is what the handlers need from the domain layer.
// Consumers define this interface, not the service implementation.
type CartService interface {
	AddItem(ctx context.Context, userID int64, menuID, storeID uuid.UUID, quantity int) error
	UpdateItem(ctx context.Context, userID int64, menuID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID int64, menuID uuid.UUID) error
	Clear(ctx context.Context, userID int64) error
	GetCart(ctx context.Context, userID int64) ([]domain.CartItem, error)
}

type CartHandler struct {
	service CartService
	timeout time.Duration
}

func NewCartHandler(service CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		service: service,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	MenuID   uuid.UUID `json:"menu_id"`
	StoreID  uuid.UUID `json:"store_id"`
	Quantity int       `json:"quantity"`
}

type CartResponseDTO struct {
	UserID int64             `json:"user_id"`
	Items  []domain.CartItem `json:"items"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.MenuID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "invalid_menu_id", "menu_id is required")
		return
	}
	if req.StoreID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "invalid_store_id", "store_id is required")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}

	if err := h.service.AddItem(ctx, userID, req.MenuID, req.StoreID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondWithCart(ctx, w, userID, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	menuID, err := uuid.Parse(chi.URLParam(r, "menuID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_menu_id", "menu_id must be a UUID")
		return
	}
	quantity, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be an integer")
		return
	}

	if err := h.service.UpdateItem(ctx, userID, menuID, quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondWithCart(ctx, w, userID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	menuID, err := uuid.Parse(chi.URLParam(r, "menuID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_menu_id", "menu_id must be a UUID")
		return
	}

	if err := h.service.RemoveItem(ctx, userID, menuID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondWithCart(ctx, w, userID, http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.service.Clear(ctx, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{UserID: userID, Items: []domain.CartItem{}})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	h.respondWithCart(ctx, w, userID, http.StatusOK)
}

func (h *CartHandler) respondWithCart(ctx context.Context, w http.ResponseWriter, userID int64, status int) {
	items, err := h.service.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	respondJSON(w, status, CartResponseDTO{UserID: userID, Items: items})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, catalog.ErrMenuNotFound):
		respondError(w, http.StatusNotFound, "menu_not_found", err.Error())
	default:
		// Cache and durable-store failures are retryable infrastructure
		// errors, never an empty cart.
		respondError(w, http.StatusServiceUnavailable, "infrastructure_error", "cart temporarily unavailable")
	}
}

func getUserIDFromContext(ctx context.Context) int64 {
	if userID, ok := ctx.Value("user_id").(int64); ok {
		return userID
	}
	return 0
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

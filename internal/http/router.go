package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/quickbite/cart-service/internal/catalog"
)

func NewRouter(service CartService, users catalog.UserDirectory, requestTimeout time.Duration) http.Handler {
	cartHandler := NewCartHandler(service, requestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "cart-service"})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(AuthMiddleware(users))
		r.Get("/", cartHandler.GetCart)
		r.Post("/items", cartHandler.AddItem)
		r.Patch("/items/{menuID}/{quantity}", cartHandler.UpdateQuantity)
		r.Delete("/items/{menuID}", cartHandler.RemoveItem)
		r.Delete("/items", cartHandler.ClearCart)
	})

	return r
}

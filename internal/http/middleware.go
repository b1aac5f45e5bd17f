package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/quickbite/cart-service/internal/catalog"
)

// AuthMiddleware resolves the caller from the X-User-ID header and checks the
// user against the identity service. Real deployments terminate JWT auth at
// the edge and pass the resolved id downstream in this header.
func AuthMiddleware(users catalog.UserDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
			if err != nil || userID <= 0 {
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
				return
			}

			exists, err := users.UserExists(r.Context(), userID)
			if err != nil {
				respondError(w, http.StatusServiceUnavailable, "identity_unavailable", "could not verify user")
				return
			}
			if !exists {
				respondError(w, http.StatusUnauthorized, "unauthorized", "unknown user")
				return
			}

			ctx := context.WithValue(r.Context(), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

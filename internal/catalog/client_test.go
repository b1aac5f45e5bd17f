package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMenu_Success(t *testing.T) {
	menuID := uuid.New()
	storeID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/menus/"+menuID.String(), r.URL.Path)
		json.NewEncoder(w).Encode(Menu{ID: menuID, StoreID: storeID, Name: "bibimbap", Price: 9500})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	menu, err := client.ResolveMenu(context.Background(), menuID)
	require.NoError(t, err)
	assert.Equal(t, storeID, menu.StoreID)
	assert.Equal(t, "bibimbap", menu.Name)
}

func TestResolveMenu_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.ResolveMenu(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMenuNotFound)
}

func TestResolveMenu_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.ResolveMenu(context.Background(), uuid.New())
	require.ErrorContains(t, err, "catalog returned status 500")
}

func TestUserExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/internal/users/1" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	ok, err := client.UserExists(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.UserExists(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	for i := 0; i < 10; i++ {
		_, err := client.ResolveMenu(context.Background(), uuid.New())
		require.ErrorIs(t, err, ErrMenuNotFound)
	}
}

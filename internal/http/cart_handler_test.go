package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quickbite/cart-service/internal/domain"
	"github.com/quickbite/cart-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ServiceMock struct {
	items []domain.CartItem
	err   error

	addedMenuID   uuid.UUID
	addedStoreID  uuid.UUID
	addedQuantity int

	updatedMenuID   uuid.UUID
	updatedQuantity int

	removedMenuID uuid.UUID
	cleared       bool
}

func (s *ServiceMock) AddItem(_ context.Context, _ int64, menuID, storeID uuid.UUID, quantity int) error {
	if s.err != nil {
		return s.err
	}
	s.addedMenuID = menuID
	s.addedStoreID = storeID
	s.addedQuantity = quantity
	return nil
}

func (s *ServiceMock) UpdateItem(_ context.Context, _ int64, menuID uuid.UUID, quantity int) error {
	if s.err != nil {
		return s.err
	}
	s.updatedMenuID = menuID
	s.updatedQuantity = quantity
	return nil
}

func (s *ServiceMock) RemoveItem(_ context.Context, _ int64, menuID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.removedMenuID = menuID
	return nil
}

func (s *ServiceMock) Clear(_ context.Context, _ int64) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = true
	return nil
}

func (s *ServiceMock) GetCart(context.Context, int64) ([]domain.CartItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type DirectoryMock struct {
	missing map[int64]bool
	err     error
}

func (d *DirectoryMock) UserExists(_ context.Context, userID int64) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return !d.missing[userID], nil
}

func authedRequest(method, target string, body []byte) *http.Request {
	var request *http.Request
	if body != nil {
		request = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		request = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(request.Context(), "user_id", int64(1))
	return request.WithContext(ctx)
}

func TestGetCart_Success(t *testing.T) {
	storeID := uuid.New()
	serviceMock := &ServiceMock{
		items: []domain.CartItem{
			{MenuID: uuid.New(), StoreID: storeID, Quantity: 2},
		},
	}

	handler := NewCartHandler(serviceMock, 5*time.Second)
	recorder := httptest.NewRecorder()

	handler.GetCart(recorder, authedRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(1), response.UserID)
	require.Len(t, response.Items, 1)
	assert.Equal(t, 2, response.Items[0].Quantity)
}

func TestGetCart_Unauthenticated(t *testing.T) {
	handler := NewCartHandler(&ServiceMock{}, 5*time.Second)
	recorder := httptest.NewRecorder()

	handler.GetCart(recorder, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestGetCart_EmptyCartIsJSONArray(t *testing.T) {
	handler := NewCartHandler(&ServiceMock{}, 5*time.Second)
	recorder := httptest.NewRecorder()

	handler.GetCart(recorder, authedRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"items":[]`)
}

func TestAddItem_Success(t *testing.T) {
	serviceMock := &ServiceMock{}
	handler := NewCartHandler(serviceMock, 5*time.Second)

	menuID, storeID := uuid.New(), uuid.New()
	body, _ := json.Marshal(AddItemRequestDTO{MenuID: menuID, StoreID: storeID, Quantity: 3})

	recorder := httptest.NewRecorder()
	handler.AddItem(recorder, authedRequest("POST", "/", body))

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, menuID, serviceMock.addedMenuID)
	assert.Equal(t, storeID, serviceMock.addedStoreID)
	assert.Equal(t, 3, serviceMock.addedQuantity)
}

func TestAddItem_InvalidBody(t *testing.T) {
	handler := NewCartHandler(&ServiceMock{}, 5*time.Second)
	recorder := httptest.NewRecorder()

	handler.AddItem(recorder, authedRequest("POST", "/", []byte("{not json")))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAddItem_RejectsZeroQuantity(t *testing.T) {
	serviceMock := &ServiceMock{}
	handler := NewCartHandler(serviceMock, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{MenuID: uuid.New(), StoreID: uuid.New(), Quantity: 0})
	recorder := httptest.NewRecorder()
	handler.AddItem(recorder, authedRequest("POST", "/", body))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Zero(t, serviceMock.addedQuantity)
}

func TestAddItem_ServiceValidationError(t *testing.T) {
	handler := NewCartHandler(&ServiceMock{err: service.ErrInvalidQuantity}, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{MenuID: uuid.New(), StoreID: uuid.New(), Quantity: 5})
	recorder := httptest.NewRecorder()
	handler.AddItem(recorder, authedRequest("POST", "/", body))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAddItem_InfrastructureError(t *testing.T) {
	handler := NewCartHandler(&ServiceMock{err: fmt.Errorf("redis save failed: broken pipe")}, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{MenuID: uuid.New(), StoreID: uuid.New(), Quantity: 5})
	recorder := httptest.NewRecorder()
	handler.AddItem(recorder, authedRequest("POST", "/", body))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "infrastructure_error", response.Code)
}

func newTestRouter(serviceMock *ServiceMock) http.Handler {
	return NewRouter(serviceMock, &DirectoryMock{}, 5*time.Second)
}

func routedRequest(method, target string, body []byte) *http.Request {
	var request *http.Request
	if body != nil {
		request = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		request = httptest.NewRequest(method, target, nil)
	}
	request.Header.Set("X-User-ID", "1")
	return request
}

func TestRouter_UpdateQuantity(t *testing.T) {
	serviceMock := &ServiceMock{}
	router := newTestRouter(serviceMock)

	menuID := uuid.New()
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, routedRequest("PATCH", "/api/v1/cart/items/"+menuID.String()+"/4", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, menuID, serviceMock.updatedMenuID)
	assert.Equal(t, 4, serviceMock.updatedQuantity)
}

func TestRouter_UpdateQuantity_BadMenuID(t *testing.T) {
	router := newTestRouter(&ServiceMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, routedRequest("PATCH", "/api/v1/cart/items/not-a-uuid/4", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_RemoveItem(t *testing.T) {
	serviceMock := &ServiceMock{}
	router := newTestRouter(serviceMock)

	menuID := uuid.New()
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, routedRequest("DELETE", "/api/v1/cart/items/"+menuID.String(), nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, menuID, serviceMock.removedMenuID)
}

func TestRouter_ClearCart(t *testing.T) {
	serviceMock := &ServiceMock{}
	router := newTestRouter(serviceMock)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, routedRequest("DELETE", "/api/v1/cart/items", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, serviceMock.cleared)
}

func TestRouter_UnknownUserRejected(t *testing.T) {
	router := NewRouter(&ServiceMock{}, &DirectoryMock{missing: map[int64]bool{1: true}}, 5*time.Second)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, routedRequest("GET", "/api/v1/cart/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRouter_IdentityServiceDown(t *testing.T) {
	router := NewRouter(&ServiceMock{}, &DirectoryMock{err: fmt.Errorf("catalog request failed: timeout")}, 5*time.Second)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, routedRequest("GET", "/api/v1/cart/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestRouter_MissingAuthHeader(t *testing.T) {
	router := newTestRouter(&ServiceMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/cart/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&ServiceMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "cart-service")
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedromirror/talkcart-web-sub009/internal/cache"
	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
	"github.com/cedromirror/talkcart-web-sub009/internal/service"
)

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*domain.Cart)}
}

func (m *memCartRepo) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (m *memCartRepo) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = cart
	return nil
}

func (m *memCartRepo) SetPaymentStatus(context.Context, string, string) error {
	return repository.ErrCartNotFound
}

type memProductRepo struct {
	products map[string]*domain.Product
}

func (m *memProductRepo) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

type missCache struct{}

func (missCache) Get(context.Context, string) (*domain.Cart, error) { return nil, cache.ErrCacheMiss }
func (missCache) Set(context.Context, string, *domain.Cart) error   { return nil }
func (missCache) Delete(context.Context, string) error              { return nil }

func newCartRouter(products ...*domain.Product) http.Handler {
	productRepo := &memProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		productRepo.products[p.ID] = p
	}
	cartSvc := service.NewCartService(newMemCartRepo(), productRepo, missCache{})
	handler := NewCartHandler(cartSvc)

	r := chi.NewRouter()
	r.Use(MockAuthMiddleware)
	r.Get("/api/v1/cart", handler.GetCart)
	r.Post("/api/v1/cart/items", handler.AddItem)
	r.Put("/api/v1/cart/items/{item_id}", handler.UpdateQuantity)
	r.Delete("/api/v1/cart/items/{item_id}", handler.RemoveItem)
	r.Delete("/api/v1/cart", handler.ClearCart)
	return r
}

func testProduct() *domain.Product {
	return &domain.Product{ID: "p1", Name: "widget", PriceMinor: 2500, Currency: "USD", Stock: 10}
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCartHandler_GetCart_EmptyCart(t *testing.T) {
	router := newCartRouter()

	rec := do(router, http.MethodGet, "/api/v1/cart", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, "user-1", cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestCartHandler_AddItem(t *testing.T) {
	router := newCartRouter(testProduct())

	rec := do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":2}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp AddItemResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "item_added", resp.Outcome)
	assert.Equal(t, int64(2), resp.Cart.TotalItems)
	assert.Equal(t, int64(5000), resp.Cart.Totals["USD"])
}

func TestCartHandler_AddItem_MergeReported(t *testing.T) {
	router := newCartRouter(testProduct())
	do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":1}`)

	rec := do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":2}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp AddItemResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "quantity_merged", resp.Outcome)
}

func TestCartHandler_AddItem_Validation(t *testing.T) {
	router := newCartRouter(testProduct())

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `not json`},
		{"missing product", `{"quantity":1}`},
		{"zero quantity", `{"product_id":"p1","quantity":0}`},
		{"excessive quantity", `{"product_id":"p1","quantity":100}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCartHandler_AddItem_UnavailableProduct(t *testing.T) {
	router := newCartRouter()

	rec := do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"missing","quantity":1}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "product_unavailable", resp.Code)
}

func TestCartHandler_UpdateQuantity(t *testing.T) {
	router := newCartRouter(testProduct())
	rec := do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":1}`)
	var resp AddItemResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	itemID := resp.Cart.Items[0].ID

	rec = do(router, http.MethodPut, "/api/v1/cart/items/"+itemID, `{"quantity":5}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, int64(5), cart.TotalItems)
}

func TestCartHandler_UpdateQuantity_UnknownItem(t *testing.T) {
	router := newCartRouter(testProduct())
	do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":1}`)

	rec := do(router, http.MethodPut, "/api/v1/cart/items/nope", `{"quantity":5}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_RemoveItem(t *testing.T) {
	router := newCartRouter(testProduct())
	rec := do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":1}`)
	var resp AddItemResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	itemID := resp.Cart.Items[0].ID

	rec = do(router, http.MethodDelete, "/api/v1/cart/items/"+itemID, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)
}

func TestCartHandler_ClearCart(t *testing.T) {
	router := newCartRouter(testProduct())
	do(router, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":3}`)

	rec := do(router, http.MethodDelete, "/api/v1/cart", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/cart", "")
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/egcartridge/storefront/internal/api/middleware"
	"github.com/egcartridge/storefront/internal/config"
	"github.com/egcartridge/storefront/internal/localstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const productsJSON = `{"data":{"products":[
	{"id":"A","name":"HP 85A Toner","model_number":"CE285A","price":"500","special_price":null,"brand_id":1,"category_id":10,"is_active":true},
	{"id":"B","name":"Canon 325","price":800,"special_price":"600","brand_id":2,"category_id":10,"is_active":"1"},
	{"id":"C","name":"Retired drum","price":300,"brand_id":1,"category_id":11,"is_active":false}
]}}`

// fakePlatform records what the storefront sends to the platform API
type fakePlatform struct {
	mu        sync.Mutex
	orders    []map[string]any
	orderAuth []string
	cartAdds  []map[string]any
	cartEdits []string
}

func (f *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/products":
		io.WriteString(w, productsJSON)
	case r.Method == http.MethodGet && r.URL.Path == "/brands":
		io.WriteString(w, `[{"id":1,"name":"HP"},{"id":2,"name":"Canon"}]`)
	case r.Method == http.MethodGet && r.URL.Path == "/categories":
		io.WriteString(w, `{"message":"maintenance"}`)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/products/"):
		switch strings.TrimPrefix(r.URL.Path, "/products/") {
		case "A":
			io.WriteString(w, `{"product":{"id":"A","name":"HP 85A Toner","price":"500","is_active":true}}`)
		case "B":
			io.WriteString(w, `{"id":"B","name":"Canon 325","price":800,"special_price":600}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Product not found"}`)
		}
	case r.Method == http.MethodPost && r.URL.Path == "/orders/from-cart":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.orders = append(f.orders, body)
		f.orderAuth = append(f.orderAuth, r.Header.Get("Authorization"))
		io.WriteString(w, `{"order":{"id":981,"status":"pending"}}`)
	case r.Method == http.MethodGet && r.URL.Path == "/orders":
		io.WriteString(w, `{"orders":[{"id":1,"status":"delivered","total_amount":"1000","order_items":[{"product_id":"A","product_name":"HP 85A Toner","quantity":2,"price":"500","serial_numbers":"[\"SN1\",\"SN2\"]"}]}]}`)
	case r.Method == http.MethodPost && r.URL.Path == "/cart":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.cartAdds = append(f.cartAdds, body)
		io.WriteString(w, `{"message":"added"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/cart":
		io.WriteString(w, `{"cart_items":[{"product_id":"B","name":"Canon 325","price":"800","special_price":"600","quantity":1}]}`)
	case (r.Method == http.MethodPut || r.Method == http.MethodDelete) && strings.HasPrefix(r.URL.Path, "/cart/") && r.URL.Path != "/cart/count":
		f.cartEdits = append(f.cartEdits, r.Method+" "+strings.TrimPrefix(r.URL.Path, "/cart/"))
		io.WriteString(w, `{"message":"ok"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/cart/count":
		io.WriteString(w, `{"count":4}`)
	case r.Method == http.MethodGet && r.URL.Path == "/profile":
		io.WriteString(w, `{"user":{"name":"Ram","email":"ram@example.com"}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"no route"}`)
	}
}

func (f *fakePlatform) recorded() (orders []map[string]any, orderAuth []string, cartAdds []map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders, f.orderAuth, f.cartAdds
}

func (f *fakePlatform) edits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.cartEdits...)
}

type harness struct {
	router   *gin.Engine
	platform *fakePlatform
	svc      *Services
}

func newHarness(t *testing.T, mergeOnLogin bool) *harness {
	t.Helper()
	platform := &fakePlatform{}
	srv := httptest.NewServer(platform)
	t.Cleanup(srv.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-key"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Environment: "test",
		Platform:    config.PlatformConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		Catalog:     config.CatalogConfig{PageSize: 9},
		Cart:        config.CartConfig{MergeOnLogin: mergeOnLogin},
		Admin:       config.AdminConfig{KeyHash: string(hash)},
	}
	logger := zap.NewNop()
	svc := NewServices(cfg, localstore.New(localstore.NewMemory(), logger), logger)
	t.Cleanup(svc.Close)

	return &harness{router: NewRouter(cfg, svc, logger), platform: platform, svc: svc}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)
	code, body := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestCatalog(t *testing.T) {
	h := newHarness(t, false)

	code, body := h.do(t, http.MethodGet, "/v1/catalog", nil)
	require.Equal(t, http.StatusOK, code)
	page := body["page"].(map[string]any)
	assert.EqualValues(t, 2, page["total"], "inactive products are hidden")
	assert.Len(t, body["brands"], 2)
	assert.Empty(t, body["categories"], "categories degrade to empty")

	code, body = h.do(t, http.MethodGet, "/v1/catalog?brand=2", nil)
	require.Equal(t, http.StatusOK, code)
	page = body["page"].(map[string]any)
	require.EqualValues(t, 1, page["total"])
	assert.Equal(t, "B", page["items"].([]any)[0].(map[string]any)["id"])

	// the brand filter persists until cleared
	_, body = h.do(t, http.MethodGet, "/v1/catalog?search=canon", nil)
	assert.EqualValues(t, 1, body["page"].(map[string]any)["total"])
	_, body = h.do(t, http.MethodGet, "/v1/catalog?brand=&search=", nil)
	assert.EqualValues(t, 2, body["page"].(map[string]any)["total"])

	_, body = h.do(t, http.MethodGet, "/v1/catalog?min_price=9000", nil)
	rng := body["price_range"].(map[string]any)
	assert.Equal(t, "600", rng["min"], "min slider clamps to the max bound")
	total := body["page"].(map[string]any)["total"]

	code, _ = h.do(t, http.MethodGet, "/v1/catalog?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// a rejected query leaves every filter as it was
	code, _ = h.do(t, http.MethodGet, "/v1/catalog?min_price=0&search=hp&page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	_, body = h.do(t, http.MethodGet, "/v1/catalog", nil)
	assert.Equal(t, "600", body["price_range"].(map[string]any)["min"])
	assert.Equal(t, total, body["page"].(map[string]any)["total"])
}

func TestGetProduct(t *testing.T) {
	h := newHarness(t, false)

	code, body := h.do(t, http.MethodGet, "/v1/products/B", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "600", body["effective_price"])
	assert.Equal(t, true, body["has_discount"])

	code, _ = h.do(t, http.MethodGet, "/v1/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGuestCartAndCheckout(t *testing.T) {
	h := newHarness(t, false)

	code, _ := h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "A", "quantity": 1})
	require.Equal(t, http.StatusCreated, code)
	code, body := h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "A", "quantity": 2})
	require.Equal(t, http.StatusCreated, code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 3, items[0].(map[string]any)["quantity"])

	_, body = h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "B", "quantity": 1})
	assert.Len(t, body["items"], 2)

	code, body = h.do(t, http.MethodPost, "/v1/cart/selection", map[string]any{"ids": []string{"B"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "600", body["total"])

	code, _ = h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "missing"})
	assert.Equal(t, http.StatusNotFound, code)

	_, body = h.do(t, http.MethodGet, "/v1/cart/count", nil)
	assert.EqualValues(t, 4, body["count"])

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/submit", nil)
	assert.Equal(t, http.StatusConflict, code, "no checkout yet")

	code, body = h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "cart"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "billing", body["checkout"].(map[string]any)["step"])

	code, body = h.do(t, http.MethodPost, "/v1/checkout/billing", map[string]any{
		"full_name": "Sita Sharma", "email": "bad", "phone": "98", "address": "Baneshwor", "city": "Kathmandu",
	})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "email", body["field"])

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/billing", map[string]any{
		"full_name": "Sita Sharma", "email": "sita@example.com", "phone": "98", "address": "Baneshwor", "city": "Kathmandu",
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/submit", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	orders, _, _ := h.platform.recorded()
	assert.Empty(t, orders)

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/payment", map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(t, http.MethodPost, "/v1/checkout/submit", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "981", body["order_id"])
	assert.Equal(t, "/", body["redirect"])

	orders, auth, _ := h.platform.recorded()
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, "cod", order["payment_method"])
	assert.Equal(t, []any{map[string]any{"product_id": "B", "quantity": float64(1)}}, order["items"])
	assert.Equal(t, "Baneshwor, Kathmandu", order["billing_info"].(map[string]any)["address"])
	assert.Empty(t, auth[0])

	_, body = h.do(t, http.MethodGet, "/v1/cart/count", nil)
	assert.EqualValues(t, 0, body["count"], "guest cart is cleared after the order")

	_, body = h.do(t, http.MethodGet, "/v1/notifications", nil)
	assert.NotEmpty(t, body["notifications"])
}

func TestBuyNowCheckout(t *testing.T) {
	h := newHarness(t, false)

	code, body := h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "buy_now", "product_id": "B", "quantity": 2})
	require.Equal(t, http.StatusCreated, code)
	st := body["checkout"].(map[string]any)
	assert.Equal(t, "buy_now", st["source"])
	assert.Equal(t, "1200", st["total"])

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "buy_now"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "cart"})
	assert.Equal(t, http.StatusBadRequest, code, "empty cart has nothing selected")
}

func TestSessionAndOrders(t *testing.T) {
	h := newHarness(t, false)

	code, _ := h.do(t, http.MethodGet, "/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := h.do(t, http.MethodPost, "/v1/session/login", map[string]any{
		"token": "tok-1", "role": "distributor", "username": "dist", "email": "d@example.com",
	})
	require.Equal(t, http.StatusOK, code)
	session := body["session"].(map[string]any)
	assert.Equal(t, true, session["authenticated"])
	assert.Equal(t, "distributor", session["credential"])
	assert.Nil(t, body["merge"])

	code, body = h.do(t, http.MethodGet, "/v1/orders", nil)
	require.Equal(t, http.StatusOK, code)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	item := orders[0].(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"SN1", "SN2"}, item["serial_numbers"])

	_, body = h.do(t, http.MethodGet, "/v1/cart/count", nil)
	assert.EqualValues(t, 4, body["count"], "signed-in count comes from the platform")

	code, body = h.do(t, http.MethodPost, "/v1/session/logout", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["session"].(map[string]any)["authenticated"])

	code, _ = h.do(t, http.MethodGet, "/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLoginMergesGuestCart(t *testing.T) {
	h := newHarness(t, true)

	code, _ := h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "A", "quantity": 2})
	require.Equal(t, http.StatusCreated, code)

	code, body := h.do(t, http.MethodPost, "/v1/session/login", map[string]any{"token": "tok", "username": "ram"})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["merge"].(map[string]any)["merged"])

	_, _, adds := h.platform.recorded()
	require.Len(t, adds, 1)
	assert.Equal(t, "A", adds[0]["product_id"])
	assert.Empty(t, h.svc.Guest.Load(context.Background()))
}

func TestLogin_Validation(t *testing.T) {
	h := newHarness(t, false)
	code, _ := h.do(t, http.MethodPost, "/v1/session/login", map[string]any{"username": "ram"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t, false)

	code, _ := h.do(t, http.MethodGet, "/v1/admin/nav", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := h.do(t, http.MethodGet, "/v1/admin/nav?current=/admin/orders", nil, middleware.AdminKeyHeader, "admin-key")
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 5)
	assert.Equal(t, true, items[2].(map[string]any)["active"])

	code, body = h.do(t, http.MethodGet, "/v1/admin/session", nil, middleware.AdminKeyHeader, "admin-key")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["session"].(map[string]any)["authenticated"])

	code, _ = h.do(t, http.MethodPost, "/v1/admin/logout", nil, middleware.AdminKeyHeader, "admin-key")
	assert.Equal(t, http.StatusOK, code)
}

// completeCheckout drives a started checkout through billing, payment and submit
func completeCheckout(t *testing.T, h *harness) {
	t.Helper()
	code, _ := h.do(t, http.MethodPost, "/v1/checkout/billing", map[string]any{
		"full_name": "Sita Sharma", "email": "sita@example.com", "phone": "98", "address": "Baneshwor", "city": "Kathmandu",
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(t, http.MethodPost, "/v1/checkout/payment", map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(t, http.MethodPost, "/v1/checkout/submit", nil)
	require.Equal(t, http.StatusCreated, code)
}

func TestCheckoutAfterOrderStartsFromEmptyCart(t *testing.T) {
	h := newHarness(t, false)

	code, _ := h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "A", "quantity": 1})
	require.Equal(t, http.StatusCreated, code)
	code, _ = h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "cart"})
	require.Equal(t, http.StatusCreated, code)
	completeCheckout(t, h)

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "cart"})
	assert.Equal(t, http.StatusBadRequest, code, "ordered lines must not be checked out again")

	code, body := h.do(t, http.MethodPost, "/v1/cart/selection", map[string]any{"all": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["empty"])
	assert.EqualValues(t, 0, body["selected_count"])

	orders, _, _ := h.platform.recorded()
	assert.Len(t, orders, 1)
}

func TestLogoutClearsGuestCartForCheckout(t *testing.T) {
	h := newHarness(t, false)

	code, _ := h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "A", "quantity": 1})
	require.Equal(t, http.StatusCreated, code)
	code, _ = h.do(t, http.MethodPost, "/v1/session/login", map[string]any{"token": "tok", "username": "ram"})
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(t, http.MethodPost, "/v1/session/logout", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "cart"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPatch, "/v1/cart/items/A", map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Empty(t, h.svc.Guest.Load(context.Background()))
}

func TestLoginSwitchesToRemoteCart(t *testing.T) {
	h := newHarness(t, false)

	code, _ := h.do(t, http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "A", "quantity": 1})
	require.Equal(t, http.StatusCreated, code)
	code, _ = h.do(t, http.MethodPost, "/v1/session/login", map[string]any{"token": "tok", "username": "ram"})
	require.Equal(t, http.StatusOK, code)

	code, _ = h.do(t, http.MethodPatch, "/v1/cart/items/A", map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, code, "guest line is not in the signed-in cart")
	code, _ = h.do(t, http.MethodDelete, "/v1/cart/items/A", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Empty(t, h.platform.edits())

	code, body := h.do(t, http.MethodPost, "/v1/checkout/start", map[string]any{"source": "cart"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "600", body["checkout"].(map[string]any)["total"])

	code, body = h.do(t, http.MethodPatch, "/v1/cart/items/B", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["remote"])
	assert.Equal(t, []string{"PUT B"}, h.platform.edits())
}

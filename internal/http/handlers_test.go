package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mediastore/storefront/internal/apiclient"
	"github.com/mediastore/storefront/internal/checkout"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/pricing"
	"github.com/mediastore/storefront/internal/service"
	"github.com/mediastore/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CatalogMock struct {
	products map[string]domain.Product
	err      error
}

func (c CatalogMock) Product(_ context.Context, id string) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, &apiclient.HTTPError{Status: http.StatusNotFound, Message: "product not found"}
	}
	return &p, nil
}

type OrdersMock struct {
	order *domain.Order
	err   error
}

func (o *OrdersMock) CreateOrder(_ context.Context, _ *domain.CheckoutRequest) (*domain.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

type PrefillMock struct{}

func (PrefillMock) Prefill(form domain.CheckoutForm) domain.CheckoutForm {
	if form.ShippingAddress.Email == "" {
		form.ShippingAddress.Email = "ana@example.com"
	}
	return form
}

type testServer struct {
	handler http.Handler
	engine  *service.CartEngine
	orders  *OrdersMock
	flow    *checkout.Flow
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	policy := pricing.DefaultPolicy()
	engine, err := service.NewCartEngine(store.NewMemoryStore(), "http-test", policy, nil,
		service.WithIDGenerator(func() string { return "cart-1" }))
	require.NoError(t, err)

	orders := &OrdersMock{order: &domain.Order{ID: "o-1", OrderNumber: "ORD-0001", Status: domain.OrderStatusPending}}
	flow := checkout.NewFlow(checkout.NewAssembler(policy), engine, orders)
	catalog := CatalogMock{products: map[string]domain.Product{
		"b-1": {ID: "b-1", Name: "Dune", Price: decimal.RequireFromString("150"), Category: domain.CategoryBook},
	}}

	h := NewRouter(RouterConfig{
		Engine:             engine,
		Catalog:            catalog,
		Flow:               flow,
		Prefiller:          PrefillMock{},
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	})
	return &testServer{handler: h, engine: engine, orders: orders, flow: flow}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, httptest.NewRequest(method, path, reader))
	return recorder
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) service.Snapshot {
	t.Helper()
	var snap service.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "test-request-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "test-request-123", rec.Header().Get("X-Request-ID"))
}

func TestAddItem_WithPrice(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/v1/cart/items", map[string]any{
		"product_id": "p-150", "quantity": 2, "unit_price": "150",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	snap := decodeSnapshot(t, rec)
	assert.Equal(t, "cart-1", snap.Cart.ID)
	require.Len(t, snap.Cart.Lines, 1)
	assert.Equal(t, 2, snap.Cart.Lines[0].Quantity)
	assert.True(t, snap.Totals.Discount.Equal(decimal.NewFromInt(30)))
}

func TestAddItem_PriceFromCatalogDefaultQuantity(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/v1/cart/items", map[string]any{"product_id": "b-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	snap := decodeSnapshot(t, rec)
	require.Len(t, snap.Cart.Lines, 1)
	assert.Equal(t, 1, snap.Cart.Lines[0].Quantity)
	assert.True(t, snap.Cart.Lines[0].UnitPrice.Equal(decimal.NewFromInt(150)))
}

func TestAddItem_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"invalid json", "invalid json", http.StatusBadRequest, "invalid_request"},
		{"missing product", map[string]any{"quantity": 1}, http.StatusBadRequest, "invalid_product_id"},
		{"zero quantity", map[string]any{"product_id": "p", "quantity": 0, "unit_price": "1"}, http.StatusBadRequest, "invalid_quantity"},
		{"negative price", map[string]any{"product_id": "p", "unit_price": "-1"}, http.StatusBadRequest, "invalid_price"},
		{"unknown catalog product", map[string]any{"product_id": "nope"}, http.StatusNotFound, "backend_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, "POST", "/api/v1/cart/items", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Empty(t, s.engine.CurrentSnapshot().Cart.Lines)
		})
	}
}

func TestAddItem_CatalogUnavailable(t *testing.T) {
	engine, err := service.NewCartEngine(store.NewMemoryStore(), "k", pricing.DefaultPolicy(), nil)
	require.NoError(t, err)
	handler := NewCartHandler(engine, CatalogMock{err: apiclient.ErrNetwork}, time.Second)

	rec := httptest.NewRecorder()
	handler.AddItem(rec, httptest.NewRequest("POST", "/items", strings.NewReader(`{"product_id":"b-1"}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service_unavailable", decodeError(t, rec).Code)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 1))

	rec := s.do(t, "PUT", "/api/v1/cart/items/p-1", map[string]int{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decodeSnapshot(t, rec).Cart.Lines[0].Quantity)

	rec = s.do(t, "PUT", "/api/v1/cart/items/missing", map[string]int{"quantity": 4})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)

	rec = s.do(t, "PUT", "/api/v1/cart/items/p-1", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "DELETE", "/api/v1/cart/items/missing", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "removing an absent product is a no-op")

	rec = s.do(t, "DELETE", "/api/v1/cart/items/p-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeSnapshot(t, rec).Cart.Lines)
}

func TestUpdateItem_ZeroRemoves(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 3))

	rec := s.do(t, "PUT", "/api/v1/cart/items/p-1", map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeSnapshot(t, rec).Cart.Lines)
}

func TestClearCart(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 1))

	rec := s.do(t, "DELETE", "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Empty(t, snap.Cart.Lines)
	assert.Equal(t, "cart-1", snap.Cart.ID)
	assert.True(t, snap.Totals.Total.IsZero())
}

func TestShippingAndQuote(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 1))

	rec := s.do(t, "GET", "/api/v1/cart/quote?shipping=express", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var quote QuoteResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
	assert.Equal(t, "express", quote.ShippingMethod)
	assert.True(t, quote.Totals.Total.Equal(decimal.RequireFromString("21.59")))
	assert.Equal(t, "standard", s.engine.CurrentSnapshot().ShippingMethod, "quote does not change selection")

	rec = s.do(t, "GET", "/api/v1/cart/quote?shipping=drone", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_shipping_method", decodeError(t, rec).Code)

	rec = s.do(t, "PUT", "/api/v1/cart/shipping", map[string]string{"shipping_method": "express"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, "express", snap.ShippingMethod)
	assert.True(t, snap.Totals.ShippingCost.Equal(decimal.RequireFromString("9.99")))

	rec = s.do(t, "GET", "/api/v1/cart/shipping-methods", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var methods []domain.ShippingMethod
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&methods))
	assert.Len(t, methods, 3)
}

func checkoutBody() map[string]any {
	return map[string]any{
		"shippingAddress": map[string]string{
			"firstName": "Ana", "lastName": "Ruiz", "phone": "55 1234 5678", "address": "Av. 1",
			"city": "CDMX", "state": "CDMX", "zipCode": "06600", "country": "Mexico",
		},
		"billingAddress": map[string]any{"sameAsShipping": true},
		"paymentMethod":  "cash",
		"shippingMethod": "standard",
		"termsAccepted":  true,
	}
}

func TestCheckout_Success(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 1))

	rec := s.do(t, "POST", "/api/v1/checkout", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CheckoutStateDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "CONFIRMED", resp.State)
	require.NotNil(t, resp.Order)
	assert.Equal(t, "ORD-0001", resp.Order.OrderNumber)
	assert.Empty(t, s.engine.CurrentSnapshot().Cart.Lines)

	rec = s.do(t, "POST", "/api/v1/checkout", checkoutBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_confirmed", decodeError(t, rec).Code)
}

func TestCheckout_NextCartAfterConfirmation(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 1))

	rec := s.do(t, "POST", "/api/v1/checkout", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, "POST", "/api/v1/cart/items", map[string]any{"product_id": "b-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	s.orders.order = &domain.Order{ID: "o-2", OrderNumber: "ORD-0002", Status: domain.OrderStatusPending}
	rec = s.do(t, "POST", "/api/v1/checkout", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CheckoutStateDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "CONFIRMED", resp.State)
	require.NotNil(t, resp.Order)
	assert.Equal(t, "ORD-0002", resp.Order.OrderNumber)
	assert.Empty(t, s.engine.CurrentSnapshot().Cart.Lines)
}

func TestCheckout_IncompleteForm(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 1))

	body := checkoutBody()
	body["termsAccepted"] = false
	rec := s.do(t, "POST", "/api/v1/checkout", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "incomplete_form", resp.Code)
	assert.Equal(t, "termsAccepted", resp.Details, "email comes from the prefiller")

	rec = s.do(t, "GET", "/api/v1/checkout/state", nil)
	var state CheckoutStateDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, "EDITING", state.State)
	assert.Contains(t, state.LastError, "termsAccepted")
}

func TestCheckout_EmptyCart(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/v1/checkout", checkoutBody())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "empty_cart", decodeError(t, rec).Code)
}

func TestCheckout_BackendFailureThenEdit(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.engine.AddLine(context.Background(), "p-1", decimal.NewFromInt(10), 1))
	s.orders.err = &apiclient.HTTPError{Status: http.StatusInternalServerError, Message: "db down"}

	rec := s.do(t, "POST", "/api/v1/checkout", checkoutBody())
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "backend_error", resp.Code)
	assert.Equal(t, "Internal server error", resp.Error)
	assert.Equal(t, checkout.StateFailed, s.flow.State())
	assert.Len(t, s.engine.CurrentSnapshot().Cart.Lines, 1)

	rec = s.do(t, "POST", "/api/v1/checkout/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state CheckoutStateDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, "EDITING", state.State)
	assert.Equal(t, "Internal server error", state.LastError)
}

func TestCheckout_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/v1/checkout", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
}

func TestHandleError_Unknown(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}

func TestHandleError_Timeout(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestMaxBodySize(t *testing.T) {
	s := newTestServer(t)
	h := NewRouter(RouterConfig{
		Engine:             s.engine,
		Flow:               s.flow,
		RequestTimeout:     time.Second,
		MaxRequestBodySize: 16,
	})
	rec := httptest.NewRecorder()
	body := `{"product_id":"p-1","quantity":1,"unit_price":"1"}`
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

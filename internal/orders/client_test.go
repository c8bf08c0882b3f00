package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mediastore/storefront/internal/apiclient"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T, r chi.Router) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL, time.Second)
}

func TestClient_CreateOrder(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/shopping-cart/checkout", func(w http.ResponseWriter, r *http.Request) {
		var req domain.CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cart-1", req.CartID)
		assert.Equal(t, "487.2", req.Total.String())
		writeJSON(w, http.StatusCreated, domain.Order{
			ID:          "o-1",
			OrderNumber: "ORD-0001",
			Total:       req.Total,
			Status:      domain.OrderStatusPending,
		})
	})

	c := NewClient(newBackend(t, r))
	order, err := c.CreateOrder(context.Background(), &domain.CheckoutRequest{
		CartID: "cart-1",
		Total:  decimal.RequireFromString("487.2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("487.2")))
}

func TestClient_CreateOrderRejected(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/shopping-cart/checkout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "insufficient stock"})
	})

	_, err := NewClient(newBackend(t, r)).CreateOrder(context.Background(), &domain.CheckoutRequest{CartID: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrHTTP)
	assert.Equal(t, http.StatusConflict, apiclient.StatusOf(err))
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestClient_OrderLookups(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Order{{ID: "o-1"}, {ID: "o-2"}})
	})
	r.Get("/orders/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Order{{ID: "o-0", Status: domain.OrderStatusDelivered}})
	})
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Order{ID: chi.URLParam(r, "id"), Status: domain.OrderStatusShipped})
	})
	r.Patch("/orders/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Order{ID: chi.URLParam(r, "id"), Status: domain.OrderStatusCancelled})
	})
	r.Get("/orders/{id}/payment-status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
	})

	c := NewClient(newBackend(t, r))
	ctx := context.Background()

	order, err := c.GetOrder(ctx, "o-9")
	require.NoError(t, err)
	assert.Equal(t, "o-9", order.ID)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)

	list, err := c.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	history, err := c.OrderHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusDelivered, history[0].Status)

	cancelled, err := c.CancelOrder(ctx, "o-9")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	status, err := c.PaymentStatus(ctx, "o-9")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, status)
}

func TestCatalog_Product(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "b-1":
			_, _ = w.Write([]byte(`{"id":"b-1","name":"Dune","price":"19.99","stock":3,"category":"book","book":{"author":"Frank Herbert"}}`))
		case "bad":
			_, _ = w.Write([]byte(`{"id":"bad","name":"?","price":"5","category":"movie","book":{"author":"x"}}`))
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
		}
	})
	cat := NewCatalog(newBackend(t, r))
	ctx := context.Background()

	p, err := cat.Product(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryBook, p.Category)
	assert.Equal(t, "Frank Herbert", p.Book.Author)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("19.99")))

	_, err = cat.Product(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	_, err = cat.Product(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, apiclient.StatusOf(err))
}

func TestCatalog_ListSkipsInvalid(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vinyl", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`[
			{"id":"v-1","name":"Kind of Blue","price":"30","category":"vinyl","vinyl":{"artist":"Miles Davis"}},
			{"id":"","name":"ghost","price":"1","category":"vinyl"}
		]`))
	})

	list, err := NewCatalog(newBackend(t, r)).List(context.Background(), domain.CategoryVinyl)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v-1", list[0].ID)
}

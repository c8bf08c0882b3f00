package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/pricing"
	"github.com/mediastore/storefront/internal/service"
	"github.com/shopspring/decimal"
)

// CartEngine is the cart state the handlers operate on.
type CartEngine interface {
	CurrentSnapshot() service.Snapshot
	AddLine(ctx context.Context, productID string, unitPrice decimal.Decimal, quantity int) error
	UpdateLineQuantity(ctx context.Context, productID string, quantity int) error
	RemoveLine(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
	SetShippingMethod(methodID string) error
	Policy() pricing.Policy
}

// ProductLookup resolves catalog prices for items added without one.
type ProductLookup interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
}

type CartHandler struct {
	engine  CartEngine
	catalog ProductLookup
	timeout time.Duration
}

func NewCartHandler(engine CartEngine, catalog ProductLookup, timeout time.Duration) *CartHandler {
	return &CartHandler{
		engine:  engine,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string           `json:"product_id"`
	Quantity  *int             `json:"quantity,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type ShippingRequestDTO struct {
	ShippingMethod string `json:"shipping_method"`
}

type QuoteResponseDTO struct {
	ShippingMethod string        `json:"shippingMethod"`
	Totals         domain.Totals `json:"totals"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.CurrentSnapshot())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	var price decimal.Decimal
	switch {
	case req.UnitPrice != nil:
		price = *req.UnitPrice
	case h.catalog != nil:
		product, err := h.catalog.Product(ctx, req.ProductID)
		if err != nil {
			handleError(w, err)
			return
		}
		price = product.Price
	default:
		respondError(w, http.StatusBadRequest, "invalid_price", "unit_price is required")
		return
	}

	if err := h.engine.AddLine(ctx, req.ProductID, price, quantity); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.engine.CurrentSnapshot())
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}

	if err := h.engine.UpdateLineQuantity(ctx, productID, *req.Quantity); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.CurrentSnapshot())
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.RemoveLine(ctx, chi.URLParam(r, "product_id")); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.CurrentSnapshot())
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.Clear(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.CurrentSnapshot())
}

// PUT /api/v1/cart/shipping
func (h *CartHandler) SetShipping(w http.ResponseWriter, r *http.Request) {
	var req ShippingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.engine.SetShippingMethod(req.ShippingMethod); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.CurrentSnapshot())
}

// GET /api/v1/cart/quote?shipping=
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.CurrentSnapshot()
	methodID := r.URL.Query().Get("shipping")
	if methodID == "" {
		methodID = snap.ShippingMethod
	}

	totals, err := h.engine.Policy().Quote(snap.Cart.Lines, methodID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, QuoteResponseDTO{ShippingMethod: methodID, Totals: totals})
}

// GET /api/v1/cart/shipping-methods
func (h *CartHandler) ShippingMethods(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Policy().ShippingMethods)
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mediastore/storefront/internal/domain"
)

type ProductCatalog interface {
	ProductLookup
	List(ctx context.Context, category domain.Category) ([]domain.Product, error)
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductHandler(catalog ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

// GET /api/v1/products?category=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	category := domain.Category(r.URL.Query().Get("category"))
	switch category {
	case "", domain.CategoryBook, domain.CategoryMovie, domain.CategoryVinyl, domain.CategoryCompactDisc:
	default:
		respondError(w, http.StatusBadRequest, "invalid_category", "unknown category "+string(category))
		return
	}

	list, err := h.catalog.List(ctx, category)
	if err != nil {
		handleError(w, err)
		return
	}
	if list == nil {
		list = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, list)
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.Product(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

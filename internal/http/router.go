package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Engine             CartEngine
	Catalog            ProductLookup
	Products           ProductCatalog
	Orders             OrderService
	Session            SessionChecker
	Flow               CheckoutFlow
	Prefiller          FormPrefiller
	Logger             *zap.Logger
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Engine, cfg.Catalog, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Flow, cfg.Prefiller, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Put("/shipping", cartHandler.SetShipping)
			r.Get("/shipping-methods", cartHandler.ShippingMethods)
			r.Get("/quote", cartHandler.Quote)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Submit)
			r.Get("/state", checkoutHandler.GetState)
			r.Post("/edit", checkoutHandler.Edit)
		})

		if cfg.Products != nil {
			productHandler := NewProductHandler(cfg.Products, cfg.RequestTimeout)
			r.Get("/products", productHandler.List)
			r.Get("/products/{product_id}", productHandler.Get)
		}

		if cfg.Orders != nil {
			ordersHandler := NewOrdersHandler(cfg.Orders, cfg.RequestTimeout)
			r.Route("/orders", func(r chi.Router) {
				r.Use(AuthMiddleware(cfg.Session))
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/history", ordersHandler.History)
				r.Get("/{order_id}", ordersHandler.GetOrder)
				r.Post("/{order_id}/cancel", ordersHandler.CancelOrder)
				r.Get("/{order_id}/payment-status", ordersHandler.PaymentStatus)
			})
		}
	})

	return r
}

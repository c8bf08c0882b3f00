package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mediastore/storefront/internal/apiclient"
	"github.com/mediastore/storefront/internal/checkout"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/notify"
	"github.com/mediastore/storefront/internal/pricing"
	"github.com/mediastore/storefront/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps engine, checkout and backend errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var incomplete *checkout.IncompleteFormError
	if errors.As(err, &incomplete) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   notify.MessageFor(err),
			Code:    "incomplete_form",
			Details: strings.Join(incomplete.Fields, ","),
		})
		return
	}

	var httpErr *apiclient.HTTPError
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, service.ErrInvalidPrice):
		respondError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, service.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, "invalid_product_id", err.Error())
	case errors.Is(err, service.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, pricing.ErrUnknownShippingMethod):
		respondError(w, http.StatusBadRequest, "unknown_shipping_method", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", notify.MessageFor(err))
	case errors.Is(err, checkout.ErrSubmitInFlight):
		respondError(w, http.StatusConflict, "submit_in_flight", err.Error())
	case errors.Is(err, checkout.ErrAlreadyConfirmed):
		respondError(w, http.StatusConflict, "already_confirmed", err.Error())
	case errors.Is(err, domain.ErrInvalidProduct):
		respondError(w, http.StatusBadGateway, "invalid_catalog_product", err.Error())
	case errors.As(err, &httpErr):
		status := http.StatusBadGateway
		if httpErr.Status >= 400 && httpErr.Status < 500 {
			status = httpErr.Status
		}
		respondError(w, status, "backend_error", notify.MessageFor(err))
	case errors.Is(err, apiclient.ErrNetwork):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", notify.MessageFor(err))
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

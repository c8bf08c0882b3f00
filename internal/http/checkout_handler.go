package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mediastore/storefront/internal/checkout"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/notify"
)

type CheckoutFlow interface {
	Submit(ctx context.Context, form domain.CheckoutForm) (*domain.Order, error)
	State() checkout.State
	LastError() error
	Order() *domain.Order
	Edit()
}

// FormPrefiller fills form fields known from the signed-in user.
type FormPrefiller interface {
	Prefill(form domain.CheckoutForm) domain.CheckoutForm
}

type CheckoutHandler struct {
	flow      CheckoutFlow
	prefiller FormPrefiller
	timeout   time.Duration
}

func NewCheckoutHandler(flow CheckoutFlow, prefiller FormPrefiller, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		flow:      flow,
		prefiller: prefiller,
		timeout:   timeout,
	}
}

type CheckoutStateDTO struct {
	State     string        `json:"state"`
	LastError string        `json:"last_error,omitempty"`
	Order     *domain.Order `json:"order,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form domain.CheckoutForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if h.prefiller != nil {
		form = h.prefiller.Prefill(form)
	}

	order, err := h.flow.Submit(ctx, form)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, CheckoutStateDTO{
		State: h.flow.State().String(),
		Order: order,
	})
}

// GET /api/v1/checkout/state
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state())
}

// POST /api/v1/checkout/edit
func (h *CheckoutHandler) Edit(w http.ResponseWriter, r *http.Request) {
	h.flow.Edit()
	respondJSON(w, http.StatusOK, h.state())
}

func (h *CheckoutHandler) state() CheckoutStateDTO {
	dto := CheckoutStateDTO{
		State: h.flow.State().String(),
		Order: h.flow.Order(),
	}
	if err := h.flow.LastError(); err != nil {
		dto.LastError = notify.MessageFor(err)
	}
	return dto
}

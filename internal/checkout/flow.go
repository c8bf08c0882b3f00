package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/service"
	"github.com/mediastore/storefront/pkg/logger"
	"go.uber.org/zap"
)

type State string

const (
	StateEditing    State = "EDITING"
	StateValidating State = "VALIDATING"
	StateSubmitting State = "SUBMITTING"
	StateConfirmed  State = "CONFIRMED"
	StateFailed     State = "FAILED"
)

func (s State) IsTerminal() bool {
	return s == StateConfirmed
}

func (s State) String() string {
	return string(s)
}

// CartSource is the part of the cart engine the flow needs.
type CartSource interface {
	CurrentSnapshot() service.Snapshot
	Clear(ctx context.Context) error
}

// OrderCreator submits a checkout request to the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req *domain.CheckoutRequest) (*domain.Order, error)
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	Success(msg string)
	Failure(err error)
}

// ConfirmationPublisher announces confirmed checkouts to other sessions.
type ConfirmationPublisher interface {
	PublishConfirmed(ctx context.Context, order *domain.Order, req *domain.CheckoutRequest) error
}

type FlowOption func(*Flow)

func WithNotifier(n Notifier) FlowOption {
	return func(f *Flow) { f.notifier = n }
}

func WithPublisher(p ConfirmationPublisher) FlowOption {
	return func(f *Flow) { f.publisher = p }
}

func WithLogger(l *zap.Logger) FlowOption {
	return func(f *Flow) { f.log = logger.OrNop(l) }
}

// Flow drives one checkout: Editing -> Validating -> Submitting -> Confirmed
// or Failed. At most one order-creation call is in flight.
type Flow struct {
	assembler *Assembler
	cart      CartSource
	orders    OrderCreator
	notifier  Notifier
	publisher ConfirmationPublisher
	log       *zap.Logger

	mu          sync.Mutex
	state       State
	lastErr     error
	order       *domain.Order
	submittedAt time.Time
	cleared     bool
}

func NewFlow(assembler *Assembler, cart CartSource, orders OrderCreator, opts ...FlowOption) *Flow {
	f := &Flow{
		assembler: assembler,
		cart:      cart,
		orders:    orders,
		log:       zap.NewNop(),
		state:     StateEditing,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LastError is the error that sent the flow back to editing, if any.
func (f *Flow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Order returns the created order once the flow is confirmed.
func (f *Flow) Order() *domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Edit moves a failed flow back to editing. A confirmed flow also returns to
// editing once a new cart has been built.
func (f *Flow) Edit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateFailed:
		f.state = StateEditing
	case StateConfirmed:
		if f.hasNewCartLocked() {
			f.restartLocked()
		}
	}
}

// Submit validates the form against the current cart and creates the order.
// Validation errors return the flow to Editing; backend errors leave it
// Failed, from which it can be resubmitted. The cart is cleared only after
// the order is created. A confirmed flow accepts a new submission only for a
// cart built after the confirmation.
func (f *Flow) Submit(ctx context.Context, form domain.CheckoutForm) (*domain.Order, error) {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting, StateValidating:
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateConfirmed:
		if !f.hasNewCartLocked() {
			f.mu.Unlock()
			return nil, ErrAlreadyConfirmed
		}
		f.restartLocked()
	}
	f.state = StateValidating
	f.mu.Unlock()

	snap := f.cart.CurrentSnapshot()
	req, err := f.assembler.BuildRequest(snap.Cart, form)

	f.mu.Lock()
	if err != nil {
		f.state = StateEditing
		f.lastErr = err
		f.mu.Unlock()
		return nil, err
	}
	f.state = StateSubmitting
	f.mu.Unlock()

	f.log.Info("submitting checkout",
		zap.String("cart_id", req.CartID),
		zap.String("payment_method", string(req.PaymentMethod)),
		zap.String("total", req.Total.String()))

	order, err := f.orders.CreateOrder(ctx, req)
	if err != nil {
		f.mu.Lock()
		f.state = StateFailed
		f.lastErr = err
		f.mu.Unlock()

		f.log.Warn("checkout failed", zap.String("cart_id", req.CartID), zap.Error(err))
		f.notifyError(err)
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Cleared while still Submitting so no second submission sees the old lines.
	errClear := f.cart.Clear(ctx)
	if errClear != nil {
		f.log.Error("failed to clear cart after checkout", zap.String("cart_id", req.CartID), zap.Error(errClear))
	}

	f.mu.Lock()
	f.state = StateConfirmed
	f.lastErr = nil
	f.order = order
	f.submittedAt = snap.Cart.UpdatedAt
	f.cleared = errClear == nil
	f.mu.Unlock()

	f.log.Info("checkout confirmed", zap.String("cart_id", req.CartID), zap.String("order_id", order.ID))

	if f.publisher != nil {
		if errPublish := f.publisher.PublishConfirmed(ctx, order, req); errPublish != nil {
			f.log.Warn("failed to publish checkout confirmation", zap.String("order_id", order.ID), zap.Error(errPublish))
		}
	}
	if f.notifier != nil {
		f.notifier.Success(fmt.Sprintf("Order %s created", orderLabel(order)))
	}

	return order, nil
}

// hasNewCartLocked reports whether the cart holds lines that were not part of
// the confirmed order.
func (f *Flow) hasNewCartLocked() bool {
	cart := f.cart.CurrentSnapshot().Cart
	if cart.IsEmpty() {
		return false
	}
	return f.cleared || !cart.UpdatedAt.Equal(f.submittedAt)
}

func (f *Flow) restartLocked() {
	f.log.Info("starting new checkout", zap.String("previous_order_id", orderID(f.order)))
	f.state = StateEditing
	f.order = nil
	f.lastErr = nil
	f.cleared = false
	f.submittedAt = time.Time{}
}

func (f *Flow) notifyError(err error) {
	if f.notifier != nil {
		f.notifier.Failure(err)
	}
}

func orderLabel(o *domain.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}

func orderID(o *domain.Order) string {
	if o == nil {
		return ""
	}
	return o.ID
}

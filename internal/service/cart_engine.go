package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/pricing"
	"github.com/mediastore/storefront/internal/store"
	"github.com/mediastore/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Option func(*CartEngine)

func WithClock(now func() time.Time) Option {
	return func(e *CartEngine) { e.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(e *CartEngine) { e.newID = gen }
}

// WithUserID stamps newly created carts with the owning user.
func WithUserID(userID string) Option {
	return func(e *CartEngine) { e.userID = userID }
}

type subscription struct {
	id int
	fn Subscriber
}

// CartEngine owns one mutable cart. Every mutation is computed on a copy,
// persisted to the snapshot store and only then committed and published, so a
// failed mutation leaves the last committed cart in place.
type CartEngine struct {
	store  store.SnapshotStore
	key    string
	policy pricing.Policy
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
	userID string

	mu       sync.Mutex
	cart     domain.Cart
	shipping domain.ShippingMethod

	// deliverMu is taken before mu is released so deliveries keep commit order.
	deliverMu sync.Mutex
	subsMu    sync.Mutex
	subs      []subscription
	nextSub   int
}

func NewCartEngine(st store.SnapshotStore, key string, policy pricing.Policy, log *zap.Logger, opts ...Option) (*CartEngine, error) {
	if st == nil {
		return nil, errors.New("snapshot store is required")
	}
	shipping, err := policy.Method(policy.DefaultShipping)
	if err != nil {
		return nil, fmt.Errorf("default shipping method: %w", err)
	}

	e := &CartEngine{
		store:    st,
		key:      key,
		policy:   policy,
		log:      logger.OrNop(log),
		now:      time.Now,
		newID:    uuid.NewString,
		shipping: shipping,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Restore loads the persisted cart. A missing snapshot leaves the cart empty;
// a corrupt one is discarded.
func (e *CartEngine) Restore(ctx context.Context) error {
	saved, err := e.store.Get(ctx, e.key)
	switch {
	case errors.Is(err, store.ErrSnapshotNotFound):
		return nil
	case errors.Is(err, store.ErrCorruptSnapshot):
		e.log.Warn("discarding corrupt cart snapshot", zap.String("key", e.key), zap.Error(err))
		if errDelete := e.store.Delete(ctx, e.key); errDelete != nil {
			e.log.Warn("failed to delete corrupt snapshot", zap.Error(errDelete))
		}
		return nil
	case err != nil:
		return fmt.Errorf("restore cart: %w", err)
	}

	cart := e.normalize(*saved)
	e.log.Debug("cart restored", zap.String("cart_id", cart.ID), zap.Int("lines", len(cart.Lines)))

	e.mu.Lock()
	e.cart = cart
	e.publishLocked()
	return nil
}

// normalize drops lines that could not have been produced by the engine and
// merges duplicates, keeping first-seen order.
func (e *CartEngine) normalize(c domain.Cart) domain.Cart {
	lines := make([]domain.CartLine, 0, len(c.Lines))
	index := make(map[string]int, len(c.Lines))
	for _, l := range c.Lines {
		if l.ProductID == "" || l.Quantity < 1 || l.UnitPrice.IsNegative() {
			e.log.Warn("dropping invalid restored line", zap.String("product_id", l.ProductID), zap.Int("quantity", l.Quantity))
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			lines[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(lines)
		lines = append(lines, l)
	}
	c.Lines = lines
	return c
}

// AddLine adds quantity units of productID. An existing line keeps its
// captured unit price and only grows in quantity.
func (e *CartEngine) AddLine(ctx context.Context, productID string, unitPrice decimal.Decimal, quantity int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: got %s", ErrInvalidPrice, unitPrice)
	}

	return e.mutate(ctx, func(c *domain.Cart, now time.Time) error {
		if c.ID == "" {
			c.ID = e.newID()
			c.UserID = e.userID
			c.CreatedAt = now
		}
		if i := c.LineIndex(productID); i >= 0 {
			if quantity > math.MaxInt-c.Lines[i].Quantity {
				return fmt.Errorf("%w: %d more units of %s overflows", ErrInvalidQuantity, quantity, productID)
			}
			c.Lines[i].Quantity += quantity
			c.Lines[i].UpdatedAt = now
			return nil
		}
		c.Lines = append(c.Lines, domain.CartLine{
			ProductID: productID,
			UnitPrice: unitPrice,
			Quantity:  quantity,
			AddedAt:   now,
			UpdatedAt: now,
		})
		return nil
	})
}

// UpdateLineQuantity sets the quantity of an existing line. A quantity of
// zero or less removes the line. Unlike RemoveLine, an absent product is an
// error.
func (e *CartEngine) UpdateLineQuantity(ctx context.Context, productID string, quantity int) error {
	return e.mutate(ctx, func(c *domain.Cart, now time.Time) error {
		i := c.LineIndex(productID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
		}
		if quantity <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
		if c.Lines[i].Quantity == quantity {
			return errNoChange
		}
		c.Lines[i].Quantity = quantity
		c.Lines[i].UpdatedAt = now
		return nil
	})
}

// RemoveLine deletes the line for productID. Removing an absent product is a
// no-op.
func (e *CartEngine) RemoveLine(ctx context.Context, productID string) error {
	return e.mutate(ctx, func(c *domain.Cart, _ time.Time) error {
		i := c.LineIndex(productID)
		if i < 0 {
			return errNoChange
		}
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	})
}

// Clear empties the cart. The cart id is kept for the rest of the session.
func (e *CartEngine) Clear(ctx context.Context) error {
	return e.mutate(ctx, func(c *domain.Cart, _ time.Time) error {
		if len(c.Lines) == 0 {
			return errNoChange
		}
		c.Lines = nil
		return nil
	})
}

// SetShippingMethod selects the method used for the snapshot totals. The
// selection is session state and is not persisted.
func (e *CartEngine) SetShippingMethod(methodID string) error {
	m, err := e.policy.Method(methodID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.shipping.ID == m.ID {
		e.mu.Unlock()
		return nil
	}
	e.shipping = m
	e.publishLocked()
	return nil
}

func (e *CartEngine) CurrentSnapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Policy returns the pricing policy used by the engine.
func (e *CartEngine) Policy() pricing.Policy {
	return e.policy
}

// Subscribe registers fn and immediately delivers the current snapshot to it.
// The returned function unregisters fn.
func (e *CartEngine) Subscribe(fn Subscriber) (unsubscribe func()) {
	e.mu.Lock()
	snap := e.snapshotLocked()
	e.deliverMu.Lock()
	e.mu.Unlock()

	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, subscription{id: id, fn: fn})
	e.subsMu.Unlock()

	fn(snap)
	e.deliverMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subsMu.Lock()
			defer e.subsMu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (e *CartEngine) mutate(ctx context.Context, fn func(c *domain.Cart, now time.Time) error) error {
	e.mu.Lock()

	now := e.now().UTC()
	next := e.cart.Clone()
	if err := fn(&next, now); err != nil {
		e.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	next.UpdatedAt = now

	if err := e.store.Set(ctx, e.key, &next); err != nil {
		e.mu.Unlock()
		e.log.Error("failed to persist cart snapshot", zap.String("cart_id", next.ID), zap.Error(err))
		return fmt.Errorf("persist cart snapshot: %w", err)
	}

	e.cart = next
	e.publishLocked()
	return nil
}

// publishLocked must be called with mu held; it releases mu.
func (e *CartEngine) publishLocked() {
	snap := e.snapshotLocked()
	e.deliverMu.Lock()
	e.mu.Unlock()
	defer e.deliverMu.Unlock()

	e.subsMu.Lock()
	subs := make([]subscription, len(e.subs))
	copy(subs, e.subs)
	e.subsMu.Unlock()

	for _, s := range subs {
		s.fn(snap.Clone())
	}
}

func (e *CartEngine) snapshotLocked() Snapshot {
	cart := e.cart.Clone()
	return Snapshot{
		Cart:           cart,
		Totals:         e.policy.Compute(cart.Lines, e.shipping),
		ShippingMethod: e.shipping.ID,
	}
}

package orders

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/service"
	"github.com/mediastore/storefront/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type cartItemBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityBody struct {
	Quantity int `json:"quantity"`
}

// CartSyncer mirrors committed cart snapshots onto the backend cart. The
// local cart stays authoritative: a failed sync is logged and retried with
// the next snapshot.
type CartSyncer struct {
	api     Backend
	log     *zap.Logger
	timeout time.Duration
	sfg     singleflight.Group

	mu      sync.Mutex
	pending map[string]domain.Cart
	synced  map[string]domain.Cart
	wg      sync.WaitGroup
}

func NewCartSyncer(api Backend, log *zap.Logger, timeout time.Duration) *CartSyncer {
	return &CartSyncer{
		api:     api,
		log:     logger.OrNop(log),
		timeout: timeout,
		pending: make(map[string]domain.Cart),
		synced:  make(map[string]domain.Cart),
	}
}

// Attach subscribes to the engine. The snapshot delivered on subscribe is
// taken as already synced.
func (s *CartSyncer) Attach(engine *service.CartEngine) (detach func()) {
	first := true
	return engine.Subscribe(func(snap service.Snapshot) {
		if first {
			first = false
			s.mu.Lock()
			if snap.Cart.ID != "" {
				s.synced[snap.Cart.ID] = snap.Cart
			}
			s.mu.Unlock()
			return
		}
		s.Push(snap)
	})
}

// Push queues snap and syncs it in the background.
func (s *CartSyncer) Push(snap service.Snapshot) {
	id := snap.Cart.ID
	if id == "" {
		return
	}
	s.mu.Lock()
	s.pending[id] = snap.Cart.Clone()
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.Sync(ctx, id); err != nil {
			s.log.Warn("cart sync failed", zap.String("cart_id", id), zap.Error(err))
		}
	}()
}

// Sync pushes the latest pending snapshot of cartID. Concurrent callers for
// the same cart share one in-flight sync.
func (s *CartSyncer) Sync(ctx context.Context, cartID string) error {
	for {
		_, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
			return nil, s.drain(ctx, cartID)
		})
		if err != nil {
			return err
		}
		s.mu.Lock()
		_, more := s.pending[cartID]
		s.mu.Unlock()
		if !more {
			return nil
		}
	}
}

// Wait blocks until background syncs finish.
func (s *CartSyncer) Wait() {
	s.wg.Wait()
}

func (s *CartSyncer) drain(ctx context.Context, cartID string) error {
	for {
		s.mu.Lock()
		next, ok := s.pending[cartID]
		prev := s.synced[cartID]
		delete(s.pending, cartID)
		s.mu.Unlock()
		if !ok {
			return nil
		}

		if err := s.push(ctx, prev, next); err != nil {
			s.mu.Lock()
			if _, newer := s.pending[cartID]; !newer {
				s.pending[cartID] = next
			}
			s.mu.Unlock()
			return err
		}

		s.mu.Lock()
		s.synced[cartID] = next
		s.mu.Unlock()
		s.log.Debug("cart synced", zap.String("cart_id", cartID), zap.Int("lines", len(next.Lines)))
	}
}

func (s *CartSyncer) push(ctx context.Context, prev, next domain.Cart) error {
	if len(next.Lines) == 0 {
		if len(prev.Lines) == 0 {
			return nil
		}
		if err := s.api.Delete(ctx, "/shopping-cart", nil); err != nil {
			return fmt.Errorf("clear backend cart: %w", err)
		}
		return nil
	}

	for _, l := range prev.Lines {
		if next.LineIndex(l.ProductID) >= 0 {
			continue
		}
		if err := s.api.Delete(ctx, itemPath(l.ProductID), nil); err != nil {
			return fmt.Errorf("remove %s from backend cart: %w", l.ProductID, err)
		}
	}

	for _, l := range next.Lines {
		i := prev.LineIndex(l.ProductID)
		switch {
		case i < 0:
			body := cartItemBody{ProductID: l.ProductID, Quantity: l.Quantity}
			if err := s.api.Post(ctx, "/shopping-cart/items", body, nil); err != nil {
				return fmt.Errorf("add %s to backend cart: %w", l.ProductID, err)
			}
		case prev.Lines[i].Quantity != l.Quantity:
			if err := s.api.Put(ctx, itemPath(l.ProductID), quantityBody{Quantity: l.Quantity}, nil); err != nil {
				return fmt.Errorf("update %s in backend cart: %w", l.ProductID, err)
			}
		}
	}
	return nil
}

func itemPath(productID string) string {
	return "/shopping-cart/items/" + url.PathEscape(productID)
}

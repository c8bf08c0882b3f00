package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mediastore/storefront/internal/service"
	"github.com/mediastore/storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CartClearer is the part of the cart engine the poller needs.
type CartClearer interface {
	CurrentSnapshot() service.Snapshot
	Clear(ctx context.Context) error
}

// Poller clears the local cart when another session confirms a checkout of
// the same cart.
type Poller struct {
	reader  messageReader
	cart    CartClearer
	source  string
	backoff time.Duration
	log     *zap.Logger
}

func NewPoller(cart CartClearer, brokers []string, topic, groupID, source string, log *zap.Logger) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(reader, cart, source, log)
}

func newPoller(r messageReader, cart CartClearer, source string, log *zap.Logger) *Poller {
	return &Poller{reader: r, cart: cart, source: source, backoff: time.Second, log: logger.OrNop(log)}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("error reading checkout event", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}
		if err := p.handle(ctx, m); err != nil {
			p.log.Warn("failed to handle checkout event", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) handle(ctx context.Context, m kafka.Message) error {
	if eventType(m) != EventCheckoutConfirmed {
		return nil
	}

	var event ConfirmedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("parse checkout event: %w", err)
	}
	if event.CartID == "" {
		return errors.New("checkout event without cart_id")
	}
	if event.Source == p.source {
		return nil
	}
	if event.CartID != p.cart.CurrentSnapshot().Cart.ID {
		return nil
	}

	p.log.Info("cart checked out in another session",
		zap.String("cart_id", event.CartID), zap.String("order_id", event.OrderID))
	if err := p.cart.Clear(ctx); err != nil {
		return fmt.Errorf("clear cart %s: %w", event.CartID, err)
	}
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == headerEventType {
			return string(h.Value)
		}
	}
	return ""
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTopic           = "checkout-outbox"
	EventCheckoutConfirmed = "checkout.confirmed"
	headerEventType        = "event_type"
)

// ConfirmedEvent is the payload of a checkout.confirmed message.
type ConfirmedEvent struct {
	EventID       string                `json:"event_id"`
	Source        string                `json:"source"`
	CartID        string                `json:"cart_id"`
	OrderID       string                `json:"order_id"`
	OrderNumber   string                `json:"order_number,omitempty"`
	PaymentMethod domain.PaymentMethod  `json:"payment_method"`
	Items         []domain.CheckoutItem `json:"items"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	CompletedAt   time.Time             `json:"completed_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher announces confirmed checkouts so other sessions sharing the cart
// can drop it.
type Publisher struct {
	writer messageWriter
	source string
	now    func() time.Time
	log    *zap.Logger
}

func NewPublisher(brokers []string, topic, source string, log *zap.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, source, log)
}

func newPublisher(w messageWriter, source string, log *zap.Logger) *Publisher {
	return &Publisher{writer: w, source: source, now: time.Now, log: logger.OrNop(log)}
}

func (p *Publisher) PublishConfirmed(ctx context.Context, order *domain.Order, req *domain.CheckoutRequest) error {
	event := ConfirmedEvent{
		EventID:       uuid.NewString(),
		Source:        p.source,
		CartID:        req.CartID,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
		TotalAmount:   req.Total,
		CompletedAt:   p.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal checkout event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(req.CartID), // cart id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(EventCheckoutConfirmed)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish checkout event: %w", err)
	}
	p.log.Debug("checkout event published", zap.String("event_id", event.EventID), zap.String("cart_id", req.CartID))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

package orders

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mediastore/storefront/internal/domain"
)

// Backend is the subset of apiclient.Client the orders package calls.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Client struct {
	api Backend
}

func NewClient(api Backend) *Client {
	return &Client{api: api}
}

// CreateOrder submits an assembled checkout request.
func (c *Client) CreateOrder(ctx context.Context, req *domain.CheckoutRequest) (*domain.Order, error) {
	var order domain.Order
	if err := c.api.Post(ctx, "/shopping-cart/checkout", req, &order); err != nil {
		return nil, fmt.Errorf("create order for cart %s: %w", req.CartID, err)
	}
	return &order, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := c.api.Get(ctx, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.api.Get(ctx, "/orders", nil, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

func (c *Client) OrderHistory(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.api.Get(ctx, "/orders/history", nil, &out); err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := c.api.Patch(ctx, "/orders/"+url.PathEscape(id)+"/cancel", struct{}{}, &order); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", id, err)
	}
	return &order, nil
}

func (c *Client) PaymentStatus(ctx context.Context, id string) (domain.PaymentStatus, error) {
	var out struct {
		Status domain.PaymentStatus `json:"status"`
	}
	if err := c.api.Get(ctx, "/orders/"+url.PathEscape(id)+"/payment-status", nil, &out); err != nil {
		return "", fmt.Errorf("payment status of order %s: %w", id, err)
	}
	return out.Status, nil
}

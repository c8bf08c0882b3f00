package pricing

import (
	"errors"
	"fmt"

	"github.com/mediastore/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrUnknownShippingMethod = errors.New("unknown shipping method")

// Policy holds the promotional and tax constants. The defaults reproduce the
// storefront demo values and are expected to be overridden from config once
// the real business rules are confirmed.
type Policy struct {
	// DiscountRate applies per line to lines whose unit price is strictly
	// greater than DiscountThreshold.
	DiscountRate      decimal.Decimal
	DiscountThreshold decimal.Decimal
	TaxRate           decimal.Decimal
	ShippingMethods   []domain.ShippingMethod
	DefaultShipping   string
}

func DefaultPolicy() Policy {
	standardFree := decimal.NewFromInt(50)
	expressFree := decimal.NewFromInt(100)

	return Policy{
		DiscountRate:      decimal.RequireFromString("0.10"),
		DiscountThreshold: decimal.NewFromInt(100),
		TaxRate:           decimal.RequireFromString("0.16"),
		ShippingMethods: []domain.ShippingMethod{
			{ID: "standard", Name: "Standard shipping", Fee: decimal.Zero, FreeAbove: &standardFree, Delivery: "5-7 business days"},
			{ID: "express", Name: "Express shipping", Fee: decimal.RequireFromString("9.99"), FreeAbove: &expressFree, Delivery: "2-3 business days"},
			{ID: "pickup", Name: "Store pickup", Fee: decimal.Zero},
		},
		DefaultShipping: "standard",
	}
}

// Method looks up a shipping method by id.
func (p Policy) Method(id string) (domain.ShippingMethod, error) {
	for _, m := range p.ShippingMethods {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.ShippingMethod{}, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, id)
}

func (p Policy) Validate() error {
	if p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("discount rate %s out of range [0,1]", p.DiscountRate)
	}
	if p.DiscountThreshold.IsNegative() {
		return fmt.Errorf("discount threshold %s is negative", p.DiscountThreshold)
	}
	if p.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate %s is negative", p.TaxRate)
	}
	if len(p.ShippingMethods) == 0 {
		return errors.New("no shipping methods configured")
	}

	seen := make(map[string]struct{}, len(p.ShippingMethods))
	for _, m := range p.ShippingMethods {
		if m.ID == "" {
			return errors.New("shipping method with empty id")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate shipping method %q", m.ID)
		}
		if m.Fee.IsNegative() {
			return fmt.Errorf("shipping method %q has negative fee", m.ID)
		}
		seen[m.ID] = struct{}{}
	}

	if _, err := p.Method(p.DefaultShipping); err != nil {
		return fmt.Errorf("default shipping: %w", err)
	}
	return nil
}

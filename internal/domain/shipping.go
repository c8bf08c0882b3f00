package domain

import "github.com/shopspring/decimal"

// ShippingMethod is an entry of the shipping table. A nil FreeAbove means the
// fee is never waived.
type ShippingMethod struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Fee       decimal.Decimal  `json:"fee" yaml:"fee"`
	FreeAbove *decimal.Decimal `json:"freeAbove,omitempty" yaml:"free_above"`
	Delivery  string           `json:"delivery,omitempty" yaml:"delivery"`
}

// CostFor returns the fee for an order with the given subtotal.
func (m ShippingMethod) CostFor(subtotal decimal.Decimal) decimal.Decimal {
	if m.FreeAbove != nil && subtotal.GreaterThanOrEqual(*m.FreeAbove) {
		return decimal.Zero
	}
	return m.Fee
}

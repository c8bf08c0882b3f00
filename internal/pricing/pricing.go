package pricing

import (
	"github.com/mediastore/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Compute derives the cart totals for the given shipping method:
//
//	subtotal = sum(unitPrice * qty)
//	discount = sum(rate * unitPrice * qty) over lines with unitPrice > threshold
//	tax      = (subtotal - discount) * taxRate
//	shipping = method fee, waived when subtotal >= method.FreeAbove
//	total    = subtotal - discount + tax + shipping
//
// No rounding is applied. An empty cart has all-zero totals.
func (p Policy) Compute(lines []domain.CartLine, method domain.ShippingMethod) domain.Totals {
	if len(lines) == 0 {
		return zeroTotals()
	}

	subtotal := decimal.Zero
	discount := decimal.Zero
	items := 0
	for _, l := range lines {
		lineTotal := l.Subtotal()
		subtotal = subtotal.Add(lineTotal)
		if l.UnitPrice.GreaterThan(p.DiscountThreshold) {
			discount = discount.Add(lineTotal.Mul(p.DiscountRate))
		}
		items += l.Quantity
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(p.TaxRate)
	shipping := method.CostFor(subtotal)

	return domain.Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		TaxableAmount: taxable,
		Tax:           tax,
		ShippingCost:  shipping,
		Total:         taxable.Add(tax).Add(shipping),
		ItemCount:     items,
	}
}

// Quote resolves methodID from the shipping table and computes totals.
func (p Policy) Quote(lines []domain.CartLine, methodID string) (domain.Totals, error) {
	m, err := p.Method(methodID)
	if err != nil {
		return domain.Totals{}, err
	}
	return p.Compute(lines, m), nil
}

func zeroTotals() domain.Totals {
	return domain.Totals{
		Subtotal:      decimal.Zero,
		Discount:      decimal.Zero,
		TaxableAmount: decimal.Zero,
		Tax:           decimal.Zero,
		ShippingCost:  decimal.Zero,
		Total:         decimal.Zero,
	}
}

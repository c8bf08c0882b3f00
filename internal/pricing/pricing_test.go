package pricing

import (
	"testing"

	"github.com/mediastore/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(id, price string, qty int) domain.CartLine {
	return domain.CartLine{ProductID: id, UnitPrice: dec(price), Quantity: qty}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestQuote_MixedLinesStandardShipping(t *testing.T) {
	p := DefaultPolicy()
	lines := []domain.CartLine{line("a", "150", 2), line("b", "50", 3)}

	totals, err := p.Quote(lines, "standard")
	require.NoError(t, err)

	assertDec(t, "450", totals.Subtotal, "subtotal")
	assertDec(t, "30", totals.Discount, "discount")
	assertDec(t, "420", totals.TaxableAmount, "taxable")
	assertDec(t, "67.2", totals.Tax, "tax")
	assertDec(t, "0", totals.ShippingCost, "shipping")
	assertDec(t, "487.2", totals.Total, "total")
	assert.Equal(t, 5, totals.ItemCount)
}

func TestCompute_ThresholdIsStrict(t *testing.T) {
	p := DefaultPolicy()
	totals, err := p.Quote([]domain.CartLine{line("a", "100", 1)}, "pickup")
	require.NoError(t, err)

	assertDec(t, "0", totals.Discount, "discount")
	assertDec(t, "116", totals.Total, "total")
}

func TestCompute_ShippingUsesSubtotalNotTaxable(t *testing.T) {
	p := DefaultPolicy()
	// subtotal 105 >= 100 waives express, although taxable (94.5) is below it.
	totals, err := p.Quote([]domain.CartLine{line("a", "105", 1)}, "express")
	require.NoError(t, err)

	assertDec(t, "10.5", totals.Discount, "discount")
	assertDec(t, "94.5", totals.TaxableAmount, "taxable")
	assertDec(t, "0", totals.ShippingCost, "shipping")
}

func TestCompute_ExpressFeeBelowThreshold(t *testing.T) {
	p := DefaultPolicy()
	totals, err := p.Quote([]domain.CartLine{line("a", "20", 2)}, "express")
	require.NoError(t, err)

	assertDec(t, "9.99", totals.ShippingCost, "shipping")
	// 40 + 6.4 + 9.99
	assertDec(t, "56.39", totals.Total, "total")
}

func TestCompute_EmptyCartIsZero(t *testing.T) {
	p := DefaultPolicy()
	totals, err := p.Quote(nil, "express")
	require.NoError(t, err)

	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.ShippingCost.IsZero())
	assert.Equal(t, 0, totals.ItemCount)
}

func TestCompute_ConfiguredRates(t *testing.T) {
	p := DefaultPolicy()
	p.DiscountRate = dec("0.25")
	p.DiscountThreshold = dec("10")
	p.TaxRate = dec("0")

	totals, err := p.Quote([]domain.CartLine{line("a", "20", 1)}, "pickup")
	require.NoError(t, err)
	assertDec(t, "5", totals.Discount, "discount")
	assertDec(t, "15", totals.Total, "total")
}

func TestQuote_UnknownMethod(t *testing.T) {
	_, err := DefaultPolicy().Quote(nil, "drone")
	assert.ErrorIs(t, err, ErrUnknownShippingMethod)
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.TaxRate = dec("-0.1")
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.ShippingMethods = append(p.ShippingMethods, domain.ShippingMethod{ID: "pickup"})
	assert.ErrorContains(t, p.Validate(), "duplicate")

	p = DefaultPolicy()
	p.DefaultShipping = "teleport"
	assert.ErrorIs(t, p.Validate(), ErrUnknownShippingMethod)
}

package domain

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

type CardDetails struct {
	CardNumber  string `json:"cardNumber"`
	CardHolder  string `json:"cardHolder"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
}

type BillingForm struct {
	SameAsShipping bool `json:"sameAsShipping"`
	Address
}

// CheckoutForm is the raw user input. It may hold stale card input even when
// another payment method is selected.
type CheckoutForm struct {
	ShippingAddress  Address       `json:"shippingAddress"`
	Billing          BillingForm   `json:"billingAddress"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	Card             *CardDetails  `json:"cardDetails,omitempty"`
	ShippingMethodID string        `json:"shippingMethod"`
	Notes            string        `json:"notes,omitempty"`
	TermsAccepted    bool          `json:"termsAccepted"`
}

type CheckoutItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CheckoutRequest is the body sent to the order-creation endpoint. Card is
// only ever set when PaymentMethod is PaymentCard.
type CheckoutRequest struct {
	CartID           string          `json:"cartId"`
	ShippingAddress  Address         `json:"shippingAddress"`
	BillingAddress   Address         `json:"billingAddress"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
	Card             *CardDetails    `json:"cardDetails,omitempty"`
	ShippingMethodID string          `json:"shippingMethod"`
	ShippingCost     decimal.Decimal `json:"shippingCost"`
	Notes            string          `json:"notes,omitempty"`
	Items            []CheckoutItem  `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Discount         decimal.Decimal `json:"discount"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
}

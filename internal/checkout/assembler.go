package checkout

import (
	"errors"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/pricing"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)

	shippingRules = map[string]interface{}{
		"firstName": "required,min=2",
		"lastName":  "required,min=2",
		"email":     "required,email",
		"phone":     "required,phone",
		"address":   "required",
		"city":      "required",
		"state":     "required",
		"zipCode":   "required,len=5,number",
		"country":   "required",
	}
	billingRules = map[string]interface{}{
		"firstName": "required",
		"lastName":  "required",
		"address":   "required",
		"city":      "required",
		"state":     "required",
		"zipCode":   "required",
		"country":   "required",
	}
	cardRules = map[string]interface{}{
		"cardNumber":  "required,len=16,number",
		"cardHolder":  "required",
		"expiryMonth": "required,oneof=01 02 03 04 05 06 07 08 09 10 11 12",
		"expiryYear":  "required,len=4,number",
		"cvv":         "required,min=3,max=4,number",
	}
	formRules = map[string]interface{}{
		"paymentMethod":  "required,oneof=cash card transfer",
		"shippingMethod": "required",
		"termsAccepted":  "required",
	}
)

// Assembler validates a checkout form against a cart and builds the order
// request. It performs no I/O.
type Assembler struct {
	policy   pricing.Policy
	validate *validator.Validate
}

func NewAssembler(policy pricing.Policy) *Assembler {
	v := validator.New()
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return &Assembler{
		policy:   policy,
		validate: v,
	}
}

// BuildRequest merges cart and form into a CheckoutRequest. Billing copies the
// shipping address when SameAsShipping is set, and card details are dropped
// unless the payment method is card.
func (a *Assembler) BuildRequest(cart domain.Cart, form domain.CheckoutForm) (*domain.CheckoutRequest, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if missing := a.invalidFields(form); len(missing) > 0 {
		return nil, &IncompleteFormError{Fields: missing}
	}

	method, err := a.policy.Method(form.ShippingMethodID)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownShippingMethod) {
			return nil, &IncompleteFormError{Fields: []string{"shippingMethod"}}
		}
		return nil, err
	}
	totals := a.policy.Compute(cart.Lines, method)

	billing := form.Billing.Address
	if form.Billing.SameAsShipping {
		billing = form.ShippingAddress
	}

	var card *domain.CardDetails
	if form.PaymentMethod == domain.PaymentCard && form.Card != nil {
		c := *form.Card
		card = &c
	}

	items := make([]domain.CheckoutItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, domain.CheckoutItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
		})
	}

	return &domain.CheckoutRequest{
		CartID:           cart.ID,
		ShippingAddress:  form.ShippingAddress,
		BillingAddress:   billing,
		PaymentMethod:    form.PaymentMethod,
		Card:             card,
		ShippingMethodID: method.ID,
		ShippingCost:     totals.ShippingCost,
		Notes:            form.Notes,
		Items:            items,
		Subtotal:         totals.Subtotal,
		Discount:         totals.Discount,
		Tax:              totals.Tax,
		Total:            totals.Total,
	}, nil
}

// invalidFields returns the dotted paths of fields that are empty or
// malformed, sorted.
func (a *Assembler) invalidFields(form domain.CheckoutForm) []string {
	var missing []string
	collect := func(prefix string, data map[string]interface{}, rules map[string]interface{}) {
		for field := range a.validate.ValidateMap(data, rules) {
			missing = append(missing, prefix+field)
		}
	}

	collect("shippingAddress.", addressFields(form.ShippingAddress), shippingRules)
	if !form.Billing.SameAsShipping {
		collect("billingAddress.", addressFields(form.Billing.Address), billingRules)
	}
	if form.PaymentMethod == domain.PaymentCard {
		var card domain.CardDetails
		if form.Card != nil {
			card = *form.Card
		}
		collect("cardDetails.", cardFields(card), cardRules)
	}
	collect("", map[string]interface{}{
		"paymentMethod":  string(form.PaymentMethod),
		"shippingMethod": form.ShippingMethodID,
		"termsAccepted":  form.TermsAccepted,
	}, formRules)

	sort.Strings(missing)
	return missing
}

func addressFields(a domain.Address) map[string]interface{} {
	return map[string]interface{}{
		"firstName": a.FirstName,
		"lastName":  a.LastName,
		"email":     a.Email,
		"phone":     a.Phone,
		"address":   a.Address,
		"city":      a.City,
		"state":     a.State,
		"zipCode":   a.ZipCode,
		"country":   a.Country,
	}
}

func cardFields(c domain.CardDetails) map[string]interface{} {
	return map[string]interface{}{
		"cardNumber":  c.CardNumber,
		"cardHolder":  c.CardHolder,
		"expiryMonth": c.ExpiryMonth,
		"expiryYear":  c.ExpiryYear,
		"cvv":         c.CVV,
	}
}

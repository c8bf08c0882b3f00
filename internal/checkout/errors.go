package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
	ErrIncompleteForm   = errors.New("checkout form is incomplete")
	ErrSubmitInFlight   = errors.New("checkout submission already in flight")
	ErrAlreadyConfirmed = errors.New("checkout already confirmed")
)

// IncompleteFormError lists the form fields, as dotted JSON paths, that are
// missing or invalid.
type IncompleteFormError struct {
	Fields []string
}

func (e *IncompleteFormError) Error() string {
	return fmt.Sprintf("%s: missing or invalid %s", ErrIncompleteForm, strings.Join(e.Fields, ", "))
}

func (e *IncompleteFormError) Is(target error) bool {
	return target == ErrIncompleteForm
}

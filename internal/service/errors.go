package service

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("product not in cart")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
	ErrInvalidProduct  = errors.New("product id is required")

	errNoChange = errors.New("no change")
)

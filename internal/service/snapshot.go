package service

import "github.com/mediastore/storefront/internal/domain"

// Snapshot is a detached view of the cart and its derived totals. Holders may
// modify it freely without affecting the engine.
type Snapshot struct {
	Cart           domain.Cart   `json:"cart"`
	Totals         domain.Totals `json:"totals"`
	ShippingMethod string        `json:"shippingMethod"`
}

func (s Snapshot) Clone() Snapshot {
	s.Cart = s.Cart.Clone()
	return s
}

// Subscriber receives snapshots synchronously, in commit order. It must not
// call mutating engine methods.
type Subscriber func(Snapshot)

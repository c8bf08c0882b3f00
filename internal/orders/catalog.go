package orders

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mediastore/storefront/internal/domain"
)

type Catalog struct {
	api Backend
}

func NewCatalog(api Backend) *Catalog {
	return &Catalog{api: api}
}

// Product fetches one catalog entry and rejects payloads that do not match
// their category.
func (c *Catalog) Product(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.api.Get(ctx, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the products of one category, or all when category is empty.
// Invalid entries are skipped.
func (c *Catalog) List(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", string(category))
	}
	var all []domain.Product
	if err := c.api.Get(ctx, "/products", query, &all); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	out := all[:0]
	for _, p := range all {
		if p.Validate() == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryBook        Category = "book"
	CategoryMovie       Category = "movie"
	CategoryVinyl       Category = "vinyl"
	CategoryCompactDisc Category = "compact-disc"
)

var ErrInvalidProduct = errors.New("invalid product")

type BookDetails struct {
	Author    string `json:"author"`
	ISBN      string `json:"isbn,omitempty"`
	Pages     int    `json:"pages,omitempty"`
	Publisher string `json:"publisher,omitempty"`
}

type MovieDetails struct {
	Director        string `json:"director"`
	DurationMinutes int    `json:"duration,omitempty"`
	Format          string `json:"format,omitempty"`
}

type RecordDetails struct {
	Artist string   `json:"artist"`
	Label  string   `json:"label,omitempty"`
	Tracks []string `json:"tracks,omitempty"`
}

// Product is a catalog entry. Exactly one of the detail pointers is set, and
// it must match Category. The cart only ever uses ID and Price.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Category    Category        `json:"category"`
	Book        *BookDetails    `json:"book,omitempty"`
	Movie       *MovieDetails   `json:"movie,omitempty"`
	Vinyl       *RecordDetails  `json:"vinyl,omitempty"`
	CompactDisc *RecordDetails  `json:"compactDisc,omitempty"`
}

func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: negative price for %s", ErrInvalidProduct, p.ID)
	}

	set := 0
	for _, present := range []bool{p.Book != nil, p.Movie != nil, p.Vinyl != nil, p.CompactDisc != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("%w: %s carries more than one category payload", ErrInvalidProduct, p.ID)
	}

	var ok bool
	switch p.Category {
	case CategoryBook:
		ok = p.Book != nil || set == 0
	case CategoryMovie:
		ok = p.Movie != nil || set == 0
	case CategoryVinyl:
		ok = p.Vinyl != nil || set == 0
	case CategoryCompactDisc:
		ok = p.CompactDisc != nil || set == 0
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, p.Category)
	}
	if !ok {
		return fmt.Errorf("%w: %s payload does not match category %q", ErrInvalidProduct, p.ID, p.Category)
	}
	return nil
}

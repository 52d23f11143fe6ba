package domain

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSizeUnavailable = errors.New("size unavailable")
	// ErrInsufficientStock is wrapped with requested/available detail at the
	// point of failure.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// SizeStock is one size entry of a product. Stock is the only catalog field
// the order core ever mutates, and only by fixed decrement.
type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// Product carries just the catalog fields the order core reads. Catalog CRUD
// lives elsewhere.
type Product struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	PriceCents int64       `json:"price_cents"`
	Sizes      []SizeStock `json:"sizes"`
}

// FindSize returns the stock entry for a size, or nil when the product does
// not come in that size.
func (p *Product) FindSize(size string) *SizeStock {
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			return &p.Sizes[i]
		}
	}
	return nil
}

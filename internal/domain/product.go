package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Sizes       []string        `json:"sizes"`
	// Stock is informational; cart mutations do not enforce it.
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

// HasSize reports whether size is one of the product's variants.
// Products without variants accept any size.
func (p Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

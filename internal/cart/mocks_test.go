package cart

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

func product(id string, price int64) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "product " + id,
		Price:    decimal.NewFromInt(price),
		Category: "footwear",
		Sizes:    []string{"7", "8", "9", "M"},
	}
}

var (
	foamRunner = product("1", 80)
	slide      = product("2", 70)
	hoodie     = product("5", 90)
)

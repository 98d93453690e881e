package catalog

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	shoeSizes    = []string{"7", "8", "9", "10", "11", "12"}
	apparelSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}
)

const placeholderImage = "/api/placeholder/400/400"

// SeedProducts is the launch collection.
func SeedProducts() []domain.Product {
	p := func(id, name string, price int64, category, description string) domain.Product {
		sizes := shoeSizes
		if category == "apparel" {
			sizes = apparelSizes
		}
		return domain.Product{
			ID:          id,
			Name:        name,
			Description: description,
			Price:       decimal.NewFromInt(price),
			ImageURL:    placeholderImage,
			Category:    category,
			Sizes:       append([]string(nil), sizes...),
			Stock:       100,
		}
	}

	return []domain.Product{
		p("1", "FOAM RUNNER", 80, "footwear", "Lightweight foam construction with unique ventilation ports. Made from algae-based foam for sustainable comfort."),
		p("2", "SLIDE", 70, "footwear", "Minimalist slide design with soft EVA foam construction. Perfect for everyday comfort."),
		p("3", "BOOST 350 V2", 220, "footwear", "Primeknit upper with signature side stripe. Full-length Boost midsole for energy return."),
		p("4", "BOOST 700", 300, "footwear", "Retro-inspired design with premium suede and mesh upper. Full-length Boost cushioning."),
		p("5", "HOODIE", 90, "apparel", "Heavyweight cotton fleece hoodie. Oversized fit with dropped shoulders."),
		p("6", "T-SHIRT", 50, "apparel", "Premium cotton jersey tee. Relaxed fit with ribbed collar."),
		p("7", "BOOST 380", 230, "footwear", "Innovative Primeknit upper with translucent monofilament side stripe. Boost midsole technology."),
		p("8", "KNIT RUNNER", 200, "footwear", "Lightweight knit upper with sock-like construction. Minimalist design meets performance."),
		p("9", "SWEATPANTS", 120, "apparel", "Premium fleece sweatpants with tapered fit. Comfortable and versatile for any occasion."),
		p("10", "LONG SLEEVE", 75, "apparel", "Essential long sleeve tee in premium cotton. Perfect layering piece with minimalist design."),
		p("11", "JACKET", 180, "apparel", "Lightweight technical jacket with water-resistant finish. Modern silhouette with functional details."),
		p("12", "SHORTS", 65, "apparel", "Comfortable cotton blend shorts with relaxed fit. Perfect for casual wear and active lifestyle."),
	}
}

func Seed(ctx context.Context, w Writer) error {
	for _, p := range SeedProducts() {
		if err := w.PutProduct(ctx, p); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

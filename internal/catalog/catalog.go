// Package catalog is the read-only product source for the storefront.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrReadOnly        = errors.New("catalog backend is read-only")
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	Trending(ctx context.Context, limit int) ([]domain.Product, error)
	Search(ctx context.Context, term string) ([]domain.Product, error)
}

// Writer is implemented by backends that can be seeded.
type Writer interface {
	PutProduct(ctx context.Context, p domain.Product) error
}

func matches(p domain.Product, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

func uniqueCategories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

package catalog

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
)

type countingCatalog struct {
	mu    sync.Mutex
	calls map[string]int
	items []domain.Product
	err   error
}

func newCountingCatalog() *countingCatalog {
	return &countingCatalog{calls: make(map[string]int), items: SeedProducts()}
}

func (m *countingCatalog) hit(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *countingCatalog) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *countingCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.hit("ListProducts")
	return m.items, m.err
}

func (m *countingCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.hit("GetProduct")
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (m *countingCatalog) ListCategories(ctx context.Context) ([]string, error) {
	m.hit("ListCategories")
	return uniqueCategories(m.items), m.err
}

func (m *countingCatalog) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	m.hit("ListByCategory")
	var out []domain.Product
	for _, p := range m.items {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, m.err
}

func (m *countingCatalog) Trending(ctx context.Context, limit int) ([]domain.Product, error) {
	m.hit("Trending")
	if limit > len(m.items) {
		limit = len(m.items)
	}
	return m.items[:limit], m.err
}

func (m *countingCatalog) Search(ctx context.Context, term string) ([]domain.Product, error) {
	m.hit("Search")
	var out []domain.Product
	for _, p := range m.items {
		if matches(p, term) {
			out = append(out, p)
		}
	}
	return out, m.err
}

func (m *countingCatalog) PutProduct(ctx context.Context, p domain.Product) error {
	m.hit("PutProduct")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == p.ID {
			m.items[i] = p
			return nil
		}
	}
	m.items = append(m.items, p)
	return nil
}

// readOnlyCatalog hides PutProduct.
type readOnlyCatalog struct {
	Catalog
}

// gatedCatalog holds ListProducts until release is closed or the call's context ends.
type gatedCatalog struct {
	*countingCatalog
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{
		countingCatalog: newCountingCatalog(),
		started:         make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (g *gatedCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.countingCatalog.ListProducts(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package catalog

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type productDoc struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	Price       float64   `firestore:"price"`
	ImageURL    string    `firestore:"image"`
	Category    string    `firestore:"category"`
	Sizes       []string  `firestore:"sizes"`
	Stock       int       `firestore:"stock"`
	CreatedAt   time.Time `firestore:"createdAt,omitempty"`
}

// FirestoreCatalog reads the "products" collection, one document per product keyed by id.
type FirestoreCatalog struct {
	Client *firestore.Client
}

func NewFirestoreCatalog(client *firestore.Client) *FirestoreCatalog {
	return &FirestoreCatalog{Client: client}
}

func (c *FirestoreCatalog) col() *firestore.CollectionRef {
	return c.Client.Collection("products")
}

func (c *FirestoreCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return collect(c.col().Documents(ctx))
}

func (c *FirestoreCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	snap, err := c.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	p, err := decodeProduct(snap)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *FirestoreCatalog) ListCategories(ctx context.Context) ([]string, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return uniqueCategories(products), nil
}

func (c *FirestoreCatalog) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return collect(c.col().Where("category", "==", category).Documents(ctx))
}

func (c *FirestoreCatalog) Trending(ctx context.Context, limit int) ([]domain.Product, error) {
	return collect(c.col().OrderBy("name", firestore.Asc).Limit(limit).Documents(ctx))
}

// Search filters in memory; Firestore has no substring queries.
func (c *FirestoreCatalog) Search(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	for _, p := range products {
		if matches(p, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *FirestoreCatalog) PutProduct(ctx context.Context, p domain.Product) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	doc := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Sizes:       p.Sizes,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
	if _, err := c.col().Doc(p.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to write product %s: %w", p.ID, err)
	}
	return nil
}

func collect(it *firestore.DocumentIterator) ([]domain.Product, error) {
	defer it.Stop()

	products := []domain.Product{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate products: %w", err)
		}
		p, err := decodeProduct(snap)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func decodeProduct(snap *firestore.DocumentSnapshot) (domain.Product, error) {
	var doc productDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Product{}, fmt.Errorf("failed to decode product %s: %w", snap.Ref.ID, err)
	}
	return domain.Product{
		ID:          snap.Ref.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Price:       decimal.NewFromFloat(doc.Price),
		ImageURL:    doc.ImageURL,
		Category:    doc.Category,
		Sizes:       doc.Sizes,
		Stock:       doc.Stock,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

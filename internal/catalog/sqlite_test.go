package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteCatalog {
	c, err := NewSQLiteCatalog(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.RunMigrations())
	require.NoError(t, Seed(context.Background(), c))
	return c
}

func TestSQLite_ListProducts(t *testing.T) {
	c := setupTestDB(t)

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 12)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "FOAM RUNNER", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, []string{"7", "8", "9", "10", "11", "12"}, products[0].Sizes)
	assert.Equal(t, "12", products[11].ID)
}

func TestSQLite_GetProduct(t *testing.T) {
	c := setupTestDB(t)

	p, err := c.GetProduct(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "HOODIE", p.Name)
	assert.Equal(t, "apparel", p.Category)

	_, err = c.GetProduct(context.Background(), "999")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSQLite_Categories(t *testing.T) {
	c := setupTestDB(t)

	categories, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"apparel", "footwear"}, categories)

	apparel, err := c.ListByCategory(context.Background(), "apparel")
	require.NoError(t, err)
	assert.Len(t, apparel, 6)
	for _, p := range apparel {
		assert.Equal(t, "apparel", p.Category)
	}
}

func TestSQLite_TrendingOrderedByName(t *testing.T) {
	c := setupTestDB(t)

	trending, err := c.Trending(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, trending, 3)
	assert.Equal(t, "BOOST 350 V2", trending[0].Name)
	assert.Equal(t, "BOOST 380", trending[1].Name)
	assert.Equal(t, "BOOST 700", trending[2].Name)
}

func TestSQLite_Search(t *testing.T) {
	c := setupTestDB(t)

	found, err := c.Search(context.Background(), "boost")
	require.NoError(t, err)
	assert.Len(t, found, 3)

	found, err = c.Search(context.Background(), "FLEECE")
	require.NoError(t, err)
	assert.Len(t, found, 2) // hoodie and sweatpants

	found, err = c.Search(context.Background(), "nothing-matches")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSQLite_PutProductUpdates(t *testing.T) {
	c := setupTestDB(t)
	ctx := context.Background()

	p, err := c.GetProduct(ctx, "6")
	require.NoError(t, err)
	p.Price = decimal.RequireFromString("45.50")
	require.NoError(t, c.PutProduct(ctx, *p))

	got, err := c.GetProduct(ctx, "6")
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("45.5")))
}

func TestSQLite_MigrationsIdempotent(t *testing.T) {
	c := setupTestDB(t)
	assert.NoError(t, c.RunMigrations())
}

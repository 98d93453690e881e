package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const loadTimeout = 5 * time.Second

// CachedCatalog is a read-through Redis cache in front of another Catalog.
// Redis failures are logged and the request falls through to the backend.
type CachedCatalog struct {
	next    Catalog
	client  *redis.Client
	baseTTL time.Duration
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCachedCatalog(next Catalog, client *redis.Client, baseTTL time.Duration) *CachedCatalog {
	if baseTTL <= 0 {
		baseTTL = 10 * time.Minute
	}
	return &CachedCatalog{
		next:    next,
		client:  client,
		baseTTL: baseTTL,
	}
}

func (c *CachedCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return readThrough(ctx, c, "catalog:products", func(ctx context.Context) ([]domain.Product, error) {
		return c.next.ListProducts(ctx)
	})
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return readThrough(ctx, c, "catalog:product:"+id, func(ctx context.Context) (*domain.Product, error) {
		return c.next.GetProduct(ctx, id)
	})
}

func (c *CachedCatalog) ListCategories(ctx context.Context) ([]string, error) {
	return readThrough(ctx, c, "catalog:categories", func(ctx context.Context) ([]string, error) {
		return c.next.ListCategories(ctx)
	})
}

func (c *CachedCatalog) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return readThrough(ctx, c, "catalog:category:"+category, func(ctx context.Context) ([]domain.Product, error) {
		return c.next.ListByCategory(ctx, category)
	})
}

func (c *CachedCatalog) Trending(ctx context.Context, limit int) ([]domain.Product, error) {
	return readThrough(ctx, c, fmt.Sprintf("catalog:trending:%d", limit), func(ctx context.Context) ([]domain.Product, error) {
		return c.next.Trending(ctx, limit)
	})
}

// Search is not cached; terms are too varied to be worth it.
func (c *CachedCatalog) Search(ctx context.Context, term string) ([]domain.Product, error) {
	return c.next.Search(ctx, term)
}

// PutProduct writes through to the backend and drops the cached entries it may have
// made stale.
func (c *CachedCatalog) PutProduct(ctx context.Context, p domain.Product) error {
	w, ok := c.next.(Writer)
	if !ok {
		return ErrReadOnly
	}
	if err := w.PutProduct(ctx, p); err != nil {
		return err
	}
	return c.Invalidate(ctx)
}

// Invalidate drops every cached catalog key.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "catalog:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func readThrough[T any](ctx context.Context, c *CachedCatalog, key string, load func(ctx context.Context) (T, error)) (T, error) {
	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		// shared by every waiter on key, not just the caller that started it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			slog.WarnContext(ctx, "catalog cache entry corrupt", "key", key)
		} else if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "catalog cache get failed", "key", key, "error", err) // continue to backend
		}

		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(fresh); err == nil {
			jitter := time.Duration(rand.Intn(60)) * time.Second
			if err := c.client.Set(ctx, key, data, c.baseTTL+jitter).Err(); err != nil {
				slog.WarnContext(ctx, "catalog cache set failed", "key", key, "error", err)
			}
		}
		return fresh, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

package cart

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

// SnapshotCache persists cart snapshots between requests and restarts.
type SnapshotCache interface {
	Get(ctx context.Context, sessionID string) (*domain.CartSnapshot, error)
	Set(ctx context.Context, sessionID string, snapshot domain.CartSnapshot) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

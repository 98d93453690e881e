package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// Registry hands out one Store per session. When a cache is configured, stores are
// restored from it on first use and every new snapshot is written back.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
	seen   map[string]time.Time
	cache  SnapshotCache
	now    func() time.Time
}

// NewRegistry creates a registry. cache may be nil for purely in-memory carts.
func NewRegistry(cache SnapshotCache) *Registry {
	return &Registry{
		stores: make(map[string]*Store),
		seen:   make(map[string]time.Time),
		cache:  cache,
		now:    time.Now,
	}
}

func (r *Registry) Get(ctx context.Context, sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen[sessionID] = r.now()
	if s, ok := r.stores[sessionID]; ok {
		return s
	}

	s := r.restore(ctx, sessionID)
	if r.cache != nil {
		s.Subscribe(r.persist(sessionID))
	}
	r.stores[sessionID] = s
	return s
}

// Len returns the number of stores held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Idle lists the sessions whose store has not been handed out since cutoff.
func (r *Registry) Idle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, at := range r.seen {
		if at.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Evict forgets the in-memory store of sessionID unless it was used at or after cutoff.
// The cached snapshot is left alone, so a later Get restores the cart while it lives there.
func (r *Registry) Evict(sessionID string, cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if at, ok := r.seen[sessionID]; ok && !at.Before(cutoff) {
		return false
	}
	delete(r.stores, sessionID)
	delete(r.seen, sessionID)
	return true
}

func (r *Registry) restore(ctx context.Context, sessionID string) *Store {
	if r.cache == nil {
		return NewStore()
	}
	snapshot, err := r.cache.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			slog.WarnContext(ctx, "cart cache get failed", "session_id", sessionID, "error", err) // continue with empty cart
		}
		return NewStore()
	}
	return NewStoreFrom(*snapshot)
}

func (r *Registry) persist(sessionID string) func(domain.CartSnapshot) {
	return func(s domain.CartSnapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		var err error
		if s.IsEmpty() {
			err = r.cache.Delete(ctx, sessionID)
		} else {
			err = r.cache.Set(ctx, sessionID, s)
		}
		if err != nil {
			slog.Warn("cart cache write failed", "session_id", sessionID, "error", err)
		}
	}
}

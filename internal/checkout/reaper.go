package checkout

import (
	"context"
	"log/slog"
	"time"
)

// IdleCarts is the part of the cart registry the reaper needs.
type IdleCarts interface {
	Idle(cutoff time.Time) []string
	Evict(sessionID string, cutoff time.Time) bool
}

// Reaper evicts sessions nobody has used for the idle TTL from memory.
// Sessions with an attempt in flight are kept.
type Reaper struct {
	carts    IdleCarts
	sessions *Orchestrator
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewReaper(carts IdleCarts, sessions *Orchestrator, ttl, interval time.Duration) *Reaper {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		carts:    carts,
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Reap(ctx); n > 0 {
				slog.InfoContext(ctx, "evicted idle sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Reap runs one pass and returns how many sessions it evicted.
func (r *Reaper) Reap(ctx context.Context) int {
	return r.ReapBefore(ctx, r.now().Add(-r.ttl))
}

// ReapBefore evicts the sessions last used before cutoff.
func (r *Reaper) ReapBefore(ctx context.Context, cutoff time.Time) int {
	evicted := 0
	for _, id := range r.carts.Idle(cutoff) {
		if !r.sessions.Forget(id) {
			slog.DebugContext(ctx, "idle session kept, attempt in flight", "session_id", id)
			continue
		}
		if r.carts.Evict(id, cutoff) {
			evicted++
		}
	}
	return evicted
}

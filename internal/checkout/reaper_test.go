package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaper_EvictsIdleSessions(t *testing.T) {
	h := newHarness(t, Config{})
	carts := cart.NewRegistry(nil)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("anon-%d", i)
		h.orch.Session(id, carts.Get(ctx, id))
		h.inbox.Notify(id, Notification{Kind: NotificationFailure})
	}
	require.Equal(t, 501, h.orch.Len())

	r := NewReaper(carts, h.orch, time.Hour, time.Minute)
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	assert.Equal(t, 500, r.Reap(ctx))
	assert.Equal(t, 0, carts.Len())
	assert.Equal(t, 1, h.orch.Len()) // session-1 from the harness never touched the registry
	_, ok := h.inbox.Latest("anon-7")
	assert.False(t, ok)
}

func TestReaper_KeepsRecentSessions(t *testing.T) {
	h := newHarness(t, Config{})
	carts := cart.NewRegistry(nil)
	ctx := context.Background()
	h.orch.Session("recent", carts.Get(ctx, "recent"))

	r := NewReaper(carts, h.orch, time.Hour, time.Minute)

	assert.Equal(t, 0, r.Reap(ctx))
	assert.Equal(t, 1, carts.Len())
	_, ok := h.orch.Lookup("recent")
	assert.True(t, ok)
}

func TestReaper_KeepsSessionWithAttemptInFlight(t *testing.T) {
	h := newHarness(t, Config{})
	carts := cart.NewRegistry(nil)
	ctx := context.Background()
	carts.Get(ctx, "session-1")

	h.store.AddItem(foamRunner(), "9")
	attempt, err := h.session.Submit(ctx, validForm())
	require.NoError(t, err)
	require.Equal(t, domain.CheckoutStateAwaitingPayment, h.session.State())

	r := NewReaper(carts, h.orch, time.Hour, time.Minute)
	assert.Equal(t, 0, r.ReapBefore(ctx, time.Now().Add(time.Second)))

	s, ok := h.orch.Lookup("session-1")
	require.True(t, ok)
	assert.Same(t, h.session, s)
	assert.Equal(t, 1, carts.Len())

	require.NoError(t, h.bridge.Cancel(attempt.Reference))
	waitOutcome(t, attempt)

	assert.Equal(t, 1, r.ReapBefore(ctx, time.Now().Add(time.Second)))
	_, ok = h.orch.Lookup("session-1")
	assert.False(t, ok)
}

func TestOrchestrator_SessionRebindsCartOutsideAttempt(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	fresh := cart.NewStore()
	fresh.AddItem(foamRunner(), "9")
	s := h.orch.Session("session-1", fresh)
	require.Same(t, h.session, s)

	attempt, err := s.Submit(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, int64(8000), attempt.AmountMinor)

	require.NoError(t, h.bridge.Cancel(attempt.Reference))
	waitOutcome(t, attempt)
}

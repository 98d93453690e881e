// Package checkout drives a checkout attempt from the customer form through the external
// payment widget to the persisted outcome.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Cart is the part of the cart store checkout needs.
type Cart interface {
	Snapshot() domain.CartSnapshot
	Clear() domain.CartSnapshot
}

// WidgetLoader yields the payment widget, loading it on first use.
type WidgetLoader interface {
	Load(ctx context.Context) (payment.Widget, error)
}

type Config struct {
	PublicKey      string
	Currency       string
	TaxRate        decimal.Decimal
	ChargeTax      bool
	PersistTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Currency == "" {
		c.Currency = "GHS"
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 10 * time.Second
	}
	return c
}

// Orchestrator owns one Session per cart session and the collaborators they share.
type Orchestrator struct {
	repo      repository.Repository
	widgets   WidgetLoader
	publisher events.Publisher
	notifier  Notifier
	metrics   *metrics.Metrics
	cfg       Config
	refs      *References
	tracer    trace.Tracer

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewOrchestrator wires the checkout workflow. publisher, notifier and m may be nil.
func NewOrchestrator(
	repo repository.Repository,
	widgets WidgetLoader,
	publisher events.Publisher,
	notifier Notifier,
	m *metrics.Metrics,
	cfg Config) *Orchestrator {

	if publisher == nil {
		publisher = events.Noop{}
	}
	if notifier == nil {
		notifier = discard{}
	}
	return &Orchestrator{
		repo:      repo,
		widgets:   widgets,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		cfg:       cfg.withDefaults(),
		refs:      NewReferences(),
		tracer:    otel.Tracer("github.com/fjod/storefront/internal/checkout"),
		sessions:  make(map[string]*Session),
	}
}

// Session returns the workflow for sessionID, creating it in Idle bound to cart.
// An existing session outside an attempt is rebound to cart.
func (o *Orchestrator) Session(sessionID string, cart Cart) *Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.sessions[sessionID]; ok {
		s.rebind(cart)
		return s
	}
	s := &Session{
		id:    sessionID,
		o:     o,
		cart:  cart,
		state: domain.CheckoutStateIdle,
	}
	o.sessions[sessionID] = s
	return s
}

// Lookup returns an existing session without creating one.
func (o *Orchestrator) Lookup(sessionID string) (*Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[sessionID]
	return s, ok
}

// Forget drops the session unless an attempt is in flight. It reports whether
// the session is gone.
func (o *Orchestrator) Forget(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[sessionID]
	if ok && s.State().InFlight() {
		return false
	}
	delete(o.sessions, sessionID)
	if f, ok := o.notifier.(forgetter); ok {
		f.Forget(sessionID)
	}
	return true
}

// Len returns the number of sessions held.
func (o *Orchestrator) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

// Awaiting reports whether some session is waiting on the payment for reference.
func (o *Orchestrator) Awaiting(reference string) bool {
	o.mu.Lock()
	sessions := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.mu.Unlock()

	for _, s := range sessions {
		if s.awaiting(reference) {
			return true
		}
	}
	return false
}

// persist runs a single repository write bounded by PersistTimeout.
func (o *Orchestrator) persist(ctx context.Context, write func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.PersistTimeout)
	defer cancel()
	return write(ctx)
}

// amounts splits the cart total into what is recorded and what is charged.
func (o *Orchestrator) amounts(total decimal.Decimal) (tax, charge decimal.Decimal, minor int64) {
	tax = total.Mul(o.cfg.TaxRate).Round(2)
	charge = total
	if o.cfg.ChargeTax {
		charge = total.Add(tax)
	}
	minor = charge.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return tax, charge, minor
}

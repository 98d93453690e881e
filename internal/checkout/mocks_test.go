package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeRepo implements repository.Repository in memory.
type fakeRepo struct {
	mu        sync.Mutex
	txs       map[string]*domain.PendingTransaction
	customers map[string]domain.CustomerRecord
	calls     []string
	nextID    int

	CreateErr error
	UpdateErr error
	UpsertErr error
	ListErr   error

	// when set, UpdateTransactionStatus(success) and UpsertCustomer each wait until
	// the other has started
	barrier *sync.WaitGroup
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		txs:       make(map[string]*domain.PendingTransaction),
		customers: make(map[string]domain.CustomerRecord),
	}
}

func (m *fakeRepo) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *fakeRepo) meet() {
	if m.barrier == nil {
		return
	}
	m.barrier.Done()
	done := make(chan struct{})
	go func() {
		m.barrier.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func (m *fakeRepo) CreatePendingTransaction(_ context.Context, tx *domain.PendingTransaction) (string, error) {
	m.record("create")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	id := fmt.Sprintf("txn-%d", m.nextID)
	stored := *tx
	stored.ID = id
	stored.Status = domain.TransactionStatusPending
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.txs[id] = &stored
	return id, nil
}

func (m *fakeRepo) UpdateTransactionStatus(_ context.Context, id string, status domain.TransactionStatus) error {
	m.record("update:" + string(status))
	if status == domain.TransactionStatusSuccess {
		m.meet()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	tx, ok := m.txs[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	if !tx.Status.CanTransitionTo(status) {
		return repository.ErrAlreadyFinal
	}
	tx.Status = status
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *fakeRepo) UpsertCustomer(_ context.Context, c domain.CustomerRecord) error {
	m.record("upsert")
	m.meet()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.customers[c.Email] = c
	return nil
}

func (m *fakeRepo) GetCustomer(_ context.Context, email string) (*domain.CustomerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[email]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return &c, nil
}

func (m *fakeRepo) GetTransaction(_ context.Context, id string) (*domain.PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	out := *tx
	return &out, nil
}

func (m *fakeRepo) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]domain.PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []domain.PendingTransaction
	for _, tx := range m.txs {
		if tx.Status == domain.TransactionStatusPending && tx.CreatedAt.Before(olderThan) && len(out) < limit {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (m *fakeRepo) Close(context.Context) error { return nil }

func (m *fakeRepo) byReference(ref string) *domain.PendingTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.txs {
		if tx.Reference == ref {
			out := *tx
			return &out
		}
	}
	return nil
}

func (m *fakeRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// recordingLauncher notes, for every launch, whether the pending record already existed.
type recordingLauncher struct {
	mu              sync.Mutex
	repo            *fakeRepo
	configs         []payment.Config
	pendingAtLaunch []bool
	err             error
}

func (l *recordingLauncher) Launch(_ context.Context, cfg payment.Config) (payment.Launch, error) {
	tx := l.repo.byReference(cfg.Reference)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.configs = append(l.configs, cfg)
	l.pendingAtLaunch = append(l.pendingAtLaunch, tx != nil && tx.Status == domain.TransactionStatusPending)
	if l.err != nil {
		return payment.Launch{}, l.err
	}
	return payment.Launch{Provider: "test", Config: &cfg}, nil
}

func (l *recordingLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.configs)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type harness struct {
	repo      *fakeRepo
	launcher  *recordingLauncher
	bridge    *payment.Bridge
	inbox     *Inbox
	publisher *recordingPublisher
	orch      *Orchestrator
	store     *cart.Store
	session   *Session
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	repo := newFakeRepo()
	launcher := &recordingLauncher{repo: repo}
	bridge := payment.NewBridge(launcher)
	inbox := NewInbox()
	publisher := &recordingPublisher{}
	if cfg.PublicKey == "" {
		cfg.PublicKey = "pk_test_123"
	}

	orch := NewOrchestrator(repo, payment.Static(bridge), publisher, inbox, nil, cfg)
	store := cart.NewStore()
	return &harness{
		repo:      repo,
		launcher:  launcher,
		bridge:    bridge,
		inbox:     inbox,
		publisher: publisher,
		orch:      orch,
		store:     store,
		session:   orch.Session("session-1", store),
	}
}

func foamRunner() domain.Product {
	return domain.Product{
		ID:       "1",
		Name:     "FOAM RUNNER",
		Price:    decimal.NewFromInt(80),
		Category: "footwear",
		Sizes:    []string{"7", "8", "9", "10", "11", "12"},
		Stock:    10,
	}
}

func validForm() CustomerForm {
	return CustomerForm{
		FullName: "Ama Mensah",
		Email:    "ama@example.com",
		Phone:    "0241234567",
		Location: "Accra, Osu",
	}
}

func waitOutcome(t *testing.T, a *Attempt) Outcome {
	t.Helper()
	select {
	case out, ok := <-a.Done:
		require.True(t, ok, "attempt finished without an outcome")
		return out
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for checkout outcome")
		return Outcome{}
	}
}

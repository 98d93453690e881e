package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "test-session-secret"
	testWebhookSecret = "whsec_test"
)

type memRepo struct {
	mu        sync.Mutex
	txs       map[string]*domain.PendingTransaction
	customers map[string]domain.CustomerRecord
	nextID    int

	CreateErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		txs:       make(map[string]*domain.PendingTransaction),
		customers: make(map[string]domain.CustomerRecord),
	}
}

func (m *memRepo) CreatePendingTransaction(_ context.Context, tx *domain.PendingTransaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	id := fmt.Sprintf("txn-%d", m.nextID)
	stored := *tx
	stored.ID = id
	m.txs[id] = &stored
	return id, nil
}

func (m *memRepo) UpdateTransactionStatus(_ context.Context, id string, status domain.TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	if !tx.Status.CanTransitionTo(status) {
		return repository.ErrAlreadyFinal
	}
	tx.Status = status
	return nil
}

func (m *memRepo) UpsertCustomer(_ context.Context, c domain.CustomerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.Email] = c
	return nil
}

func (m *memRepo) GetCustomer(_ context.Context, email string) (*domain.CustomerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[email]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return &c, nil
}

func (m *memRepo) GetTransaction(_ context.Context, id string) (*domain.PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	out := *tx
	return &out, nil
}

func (m *memRepo) ListStalePending(context.Context, time.Time, int) ([]domain.PendingTransaction, error) {
	return nil, nil
}

func (m *memRepo) Close(context.Context) error {
	return nil
}

func (m *memRepo) status(id string) domain.TransactionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.txs[id]; ok {
		return tx.Status
	}
	return ""
}

// memCatalog serves a fixed product list.
type memCatalog struct {
	products []domain.Product
	err      error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: []domain.Product{
		{ID: "1", Name: "Foam Runner", Description: "Lightweight foam shoe", Price: decimal.NewFromInt(80), Category: "Footwear", Sizes: []string{"40", "41", "42"}},
		{ID: "2", Name: "Fleece Hoodie", Description: "Heavyweight fleece", Price: decimal.RequireFromString("45.50"), Category: "Apparel", Sizes: []string{"S", "M", "L"}},
		{ID: "3", Name: "Slide", Description: "Foam slide", Price: decimal.NewFromInt(30), Category: "Footwear", Sizes: []string{"42"}},
	}}
}

func (m *memCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *memCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

func (m *memCatalog) ListCategories(context.Context) ([]string, error) {
	return []string{"Apparel", "Footwear"}, m.err
}

func (m *memCatalog) ListByCategory(_ context.Context, category string) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, m.err
}

func (m *memCatalog) Trending(_ context.Context, limit int) ([]domain.Product, error) {
	if limit > len(m.products) {
		limit = len(m.products)
	}
	return m.products[:limit], m.err
}

func (m *memCatalog) Search(_ context.Context, term string) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(term)) {
			out = append(out, p)
		}
	}
	return out, m.err
}

type testServer struct {
	handler  http.Handler
	repo     *memRepo
	catalog  *memCatalog
	metrics  *metrics.Metrics
	sessions *Sessions
	carts    *cart.Registry
	orch     *checkout.Orchestrator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := newMemRepo()
	cat := newMemCatalog()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	inbox := checkout.NewInbox()
	bridge := payment.NewBridge(payment.InlineLauncher{Provider: "paystack", ScriptURL: "https://js.paystack.co/v1/inline.js"})
	orch := checkout.NewOrchestrator(repo, payment.Static(bridge), nil, inbox, m, checkout.Config{
		PublicKey: "pk_test",
		Currency:  "GHS",
		TaxRate:   decimal.RequireFromString("0.08"),
	})
	sessions := NewSessions(testSecret, time.Hour, false)
	carts := cart.NewRegistry(nil)

	handler := NewRouter(RouterConfig{
		Catalog:             cat,
		Carts:               carts,
		Orchestrator:        orch,
		Inbox:               inbox,
		Payments:            bridge,
		Sessions:            sessions,
		Metrics:             m,
		Gatherer:            reg,
		ClientCallbacks:     true,
		StripeWebhookSecret: testWebhookSecret,
		RequestTimeout:      5 * time.Second,
	})

	return &testServer{
		handler:  handler,
		repo:     repo,
		catalog:  cat,
		metrics:  m,
		sessions: sessions,
		carts:    carts,
		orch:     orch,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// startSession opens a cart session and returns its token.
func (ts *testServer) startSession(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, token)
	return token
}

func (ts *testServer) checkoutState(t *testing.T, token string) CheckoutResponseDTO {
	t.Helper()
	rec := ts.do(t, http.MethodGet, "/api/v1/checkout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CheckoutResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func (ts *testServer) waitState(t *testing.T, token string, want domain.CheckoutState) CheckoutResponseDTO {
	t.Helper()
	var resp CheckoutResponseDTO
	require.Eventually(t, func() bool {
		resp = ts.checkoutState(t, token)
		// the notification lands just after the state
		return resp.State == want && (!want.IsTerminal() || resp.Notification != nil)
	}, 2*time.Second, 10*time.Millisecond)
	return resp
}

func validForm() checkout.CustomerForm {
	return checkout.CustomerForm{
		FullName: "Ama Mensah",
		Email:    "ama@example.com",
		Phone:    "0241234567",
		Location: "East Legon, Accra",
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillCart(t *testing.T, ts *testServer, token string) {
	t.Helper()
	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", token, AddItemRequestDTO{ProductID: "1", Size: "42"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
}

func submit(t *testing.T, ts *testServer, token string) checkout.Attempt {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, validForm())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	return decode[checkout.Attempt](t, rec)
}

func TestCheckout_SuccessfulPayment(t *testing.T) {
	ts := newTestServer(t)
	token := ts.startSession(t)
	fillCart(t, ts, token)

	attempt := submit(t, ts, token)
	assert.NotEmpty(t, attempt.Reference)
	assert.Equal(t, int64(16000), attempt.AmountMinor)
	assert.Equal(t, "GHS", attempt.Currency)
	require.NotNil(t, attempt.Launch.Config)
	assert.Equal(t, "pk_test", attempt.Launch.Config.Key)
	assert.Equal(t, attempt.Reference, attempt.Launch.Config.Reference)
	assert.Equal(t, domain.TransactionStatusPending, ts.repo.status(attempt.TransactionID))

	state := ts.checkoutState(t, token)
	assert.Equal(t, domain.CheckoutStateAwaitingPayment, state.State)
	require.NotNil(t, state.Attempt)
	assert.Equal(t, attempt.Reference, state.Attempt.Reference)

	rec := ts.do(t, http.MethodPost, "/api/v1/payments/"+attempt.Reference+"/callback", token,
		CallbackRequestDTO{Status: "success", Message: "Approved", Transaction: "4099260516"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	state = ts.waitState(t, token, domain.CheckoutStateCompleted)
	require.NotNil(t, state.Last)
	assert.Equal(t, "completed", state.Last.Kind)
	require.NotNil(t, state.Notification)
	assert.Equal(t, checkout.NotificationSuccess, state.Notification.Kind)
	assert.Equal(t, domain.TransactionStatusSuccess, ts.repo.status(attempt.TransactionID))

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Empty(t, decode[domain.CartSnapshot](t, rec).Lines)
}

func TestCheckout_CancelKeepsCart(t *testing.T) {
	ts := newTestServer(t)
	token := ts.startSession(t)
	fillCart(t, ts, token)

	attempt := submit(t, ts, token)
	rec := ts.do(t, http.MethodPost, "/api/v1/payments/"+attempt.Reference+"/cancel", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	state := ts.waitState(t, token, domain.CheckoutStateFailed)
	require.NotNil(t, state.Last)
	assert.Equal(t, "cancelled", state.Last.Kind)
	assert.Equal(t, domain.TransactionStatusFailed, ts.repo.status(attempt.TransactionID))

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, "160", decode[domain.CartSnapshot](t, rec).Total.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CheckoutStateFormEntry, decode[CheckoutResponseDTO](t, rec).State)
}

func TestCheckout_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.startSession(t)
	fillCart(t, ts, token)

	form := validForm()
	form.Email = "not-an-email"
	form.Phone = "024"
	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "phone_number")
	assert.NotContains(t, resp.Fields, "full_name")
}

func TestCheckout_EmptyCart(t *testing.T) {
	ts := newTestServer(t)
	token := ts.startSession(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, validForm())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)
}

func TestCheckout_InProgress(t *testing.T) {
	ts := newTestServer(t)
	token := ts.startSession(t)
	fillCart(t, ts, token)

	submit(t, ts, token)
	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, validForm())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "checkout_in_progress", decode[ErrorResponse](t, rec).Code)
}

func TestCheckout_PersistenceFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.repo.CreateErr = errors.New("mongo: no reachable servers")
	token := ts.startSession(t)
	fillCart(t, ts, token)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, validForm())
	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "persistence_error", resp.Code)
	assert.Contains(t, resp.Details, "no reachable servers")

	state := ts.checkoutState(t, token)
	assert.Equal(t, domain.CheckoutStateFormEntry, state.State)
}

func TestCheckout_OpenAndResetRules(t *testing.T) {
	ts := newTestServer(t)
	token := ts.startSession(t)

	assert.Equal(t, domain.CheckoutStateIdle, ts.checkoutState(t, token).State)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout/open", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CheckoutStateFormEntry, decode[CheckoutResponseDTO](t, rec).State)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/reset", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "illegal_transition", decode[ErrorResponse](t, rec).Code)
}

func TestCheckout_InvalidBody(t *testing.T) {
	ts := newTestServer(t)
	token := ts.startSession(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, []string{"not", "a", "form"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

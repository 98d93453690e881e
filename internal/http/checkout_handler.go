package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
)

type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	carts        *cart.Registry
	inbox        *checkout.Inbox
	timeout      time.Duration
}

// NewCheckoutHandler creates the checkout endpoints. inbox may be nil.
func NewCheckoutHandler(o *checkout.Orchestrator, carts *cart.Registry, inbox *checkout.Inbox, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: o,
		carts:        carts,
		inbox:        inbox,
		timeout:      timeout,
	}
}

type CheckoutResponseDTO struct {
	State        domain.CheckoutState   `json:"state"`
	Attempt      *checkout.Attempt      `json:"attempt,omitempty"`
	Last         *OutcomeDTO            `json:"last,omitempty"`
	Notification *checkout.Notification `json:"notification,omitempty"`
}

type OutcomeDTO struct {
	checkout.Outcome
	Kind  string `json:"outcome"`
	Error string `json:"error,omitempty"`
}

func (h *CheckoutHandler) session(r *http.Request) *checkout.Session {
	id := sessionFrom(r.Context())
	return h.orchestrator.Session(id, h.carts.Get(r.Context(), id))
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.view(r, h.session(r)))
}

// POST /api/v1/checkout/open
func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if err := s.Open(); err != nil {
		checkoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(r, s))
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form checkout.CustomerForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	attempt, err := h.session(r).Submit(ctx, form)
	if err != nil {
		checkoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, attempt)
}

// POST /api/v1/checkout/reset
func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if err := s.Reset(); err != nil {
		checkoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(r, s))
}

func (h *CheckoutHandler) view(r *http.Request, s *checkout.Session) CheckoutResponseDTO {
	resp := CheckoutResponseDTO{
		State:   s.State(),
		Attempt: s.Current(),
	}
	if last := s.Last(); last != nil {
		resp.Last = &OutcomeDTO{
			Outcome: *last,
			Kind:    last.Label(),
			Error:   errorText(last.Err),
		}
	}
	if h.inbox != nil {
		if n, ok := h.inbox.Latest(s.ID()); ok {
			resp.Notification = &n
		}
	}
	return resp
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *checkout.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "please correct the highlighted fields",
			Code:   "validation_failed",
			Fields: vErr.Fields,
		})
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrPersistence):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   checkout.ErrPersistence.Error(),
			Code:    "persistence_error",
			Details: err.Error(),
		})
	case errors.Is(err, checkout.ErrPaymentLoad):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   checkout.ErrPaymentLoad.Error(),
			Code:    "payment_unavailable",
			Details: err.Error(),
		})
	default:
		slog.ErrorContext(r.Context(), "checkout request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

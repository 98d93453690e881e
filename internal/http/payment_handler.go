package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v81/webhook"
)

// PaymentHandler delivers widget results that arrive outside the submit request.
type PaymentHandler struct {
	bridge        *payment.Bridge
	orchestrator  *checkout.Orchestrator
	webhookSecret string
}

func NewPaymentHandler(bridge *payment.Bridge, o *checkout.Orchestrator, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		bridge:        bridge,
		orchestrator:  o,
		webhookSecret: webhookSecret,
	}
}

// owns reports whether the caller's session is the one awaiting reference.
func (h *PaymentHandler) owns(r *http.Request, reference string) bool {
	s, ok := h.orchestrator.Lookup(sessionFrom(r.Context()))
	if !ok {
		return false
	}
	a := s.Current()
	return a != nil && a.Reference == reference
}

type CallbackRequestDTO struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Transaction string `json:"transaction"`
}

// POST /api/v1/payments/{reference}/callback
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if !h.owns(r, reference) {
		paymentError(w, payment.ErrUnknownReference)
		return
	}

	var req CallbackRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "invalid_status", "status is required")
		return
	}

	err := h.bridge.Resolve(reference, payment.Result{
		Reference:   reference,
		Status:      req.Status,
		Message:     req.Message,
		Transaction: req.Transaction,
	})
	if err != nil {
		paymentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/payments/{reference}/cancel
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if !h.owns(r, reference) {
		paymentError(w, payment.ErrUnknownReference)
		return
	}
	if err := h.bridge.Cancel(reference); err != nil {
		paymentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /webhooks/stripe
func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		slog.WarnContext(r.Context(), "rejected stripe webhook", "error", err)
		respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	}

	if err := payment.ApplyStripeEvent(h.bridge, event); err != nil {
		if !errors.Is(err, payment.ErrUnknownReference) {
			slog.ErrorContext(r.Context(), "failed to apply stripe event", "event_id", event.ID, "type", event.Type, "error", err)
			respondError(w, http.StatusBadRequest, "invalid_event", err.Error())
			return
		}
		// already settled, or owned by another instance
		slog.InfoContext(r.Context(), "stripe event for unknown reference", "event_id", event.ID, "type", event.Type)
	}
	w.WriteHeader(http.StatusOK)
}

func paymentError(w http.ResponseWriter, err error) {
	if errors.Is(err, payment.ErrUnknownReference) {
		respondError(w, http.StatusNotFound, "unknown_reference", "no payment is awaiting this reference")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// StripeLauncher opens a hosted Stripe Checkout Session for the attempt. The session
// carries the reference as client_reference_id so webhooks can be matched back.
type StripeLauncher struct {
	create     SessionCreator
	breaker    *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	successURL string
	cancelURL  string
}

func NewStripeLauncher(secretKey, successURL, cancelURL string) *StripeLauncher {
	stripe.Key = secretKey
	return NewStripeLauncherWithCreator(session.New, successURL, cancelURL)
}

func NewStripeLauncherWithCreator(create SessionCreator, successURL, cancelURL string) *StripeLauncher {
	breaker := gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &StripeLauncher{
		create:     create,
		breaker:    breaker,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (l *StripeLauncher) Launch(ctx context.Context, cfg Config) (Launch, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(cfg.Reference),
		CustomerEmail:     stripe.String(cfg.Email),
		SuccessURL:        stripe.String(l.successURL),
		CancelURL:         stripe.String(l.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(cfg.Currency)),
					UnitAmount: stripe.Int64(cfg.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order " + cfg.Reference),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("transaction_id", cfg.Metadata.TransactionID)
	for _, f := range cfg.Metadata.CustomFields {
		params.AddMetadata(f.VariableName, f.Value)
	}

	sess, err := l.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return l.create(params)
	})
	if err != nil {
		return Launch{}, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	return Launch{Provider: "stripe", RedirectURL: sess.URL}, nil
}

// ApplyStripeEvent routes a verified Stripe webhook event to the bridge. Events that do
// not settle a checkout session are ignored.
func ApplyStripeEvent(b *Bridge, event stripe.Event) error {
	var status string
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		status = StatusSuccess
	case "checkout.session.async_payment_failed":
		status = "failed"
	case "checkout.session.expired":
	default:
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to decode checkout session: %w", err)
	}

	if event.Type == "checkout.session.expired" {
		return b.Cancel(sess.ClientReferenceID)
	}
	// async payment methods settle in a later event
	if event.Type == "checkout.session.completed" && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return nil
	}
	return b.Resolve(sess.ClientReferenceID, Result{
		Reference:   sess.ClientReferenceID,
		Status:      status,
		Transaction: sess.ID,
	})
}

// Package events publishes checkout outcomes for downstream consumers (fulfilment,
// notifications).
package events

import (
	"context"
	"time"
)

const (
	TypeCheckoutCompleted = "checkout.completed"
	TypeCheckoutFailed    = "checkout.failed"
)

type Item struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type Event struct {
	Type          string    `json:"event_type"`
	SessionID     string    `json:"session_id"`
	TransactionID string    `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Email         string    `json:"email"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Items         []Item    `json:"items,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

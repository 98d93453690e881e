package checkout

import (
	"sync"
	"time"
)

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationWarning NotificationKind = "warning"
	NotificationFailure NotificationKind = "failure"
)

const (
	msgSuccess   = "Payment successful! Your order has been placed."
	msgWarning   = "Your payment went through, but we could not record your order. Please contact support."
	msgDeclined  = "Payment failed. Please try again."
	msgCancelled = "Payment was cancelled. Your cart has been kept."
	msgGeneric   = "An error occurred during checkout. Please try again."
)

type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Reference string           `json:"reference,omitempty"`
	At        time.Time        `json:"at"`
}

// Notifier receives the user-facing message for each finished attempt.
type Notifier interface {
	Notify(sessionID string, n Notification)
}

// Inbox is a Notifier that keeps the latest notification per session.
type Inbox struct {
	mu   sync.RWMutex
	last map[string]Notification
}

func NewInbox() *Inbox {
	return &Inbox{last: make(map[string]Notification)}
}

func (i *Inbox) Notify(sessionID string, n Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last[sessionID] = n
}

func (i *Inbox) Latest(sessionID string) (Notification, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n, ok := i.last[sessionID]
	return n, ok
}

// Forget drops the stored notification of sessionID.
func (i *Inbox) Forget(sessionID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.last, sessionID)
}

type forgetter interface {
	Forget(sessionID string)
}

type discard struct{}

func (discard) Notify(string, Notification) {}

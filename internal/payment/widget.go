// Package payment models the external payment widget: a provider that is opened once per
// checkout attempt and later reports exactly one result or a user cancellation.
package payment

import (
	"context"
	"errors"
)

const StatusSuccess = "success"

var (
	ErrLoad             = errors.New("payment widget failed to load")
	ErrUnknownReference = errors.New("no payment awaiting this reference")
)

// Config is what the widget needs to start a payment. Amount is in the minor currency unit.
type Config struct {
	Key       string   `json:"key"`
	Email     string   `json:"email"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	Reference string   `json:"ref"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata struct {
	TransactionID string        `json:"transactionId"`
	CustomFields  []CustomField `json:"custom_fields,omitempty"`
}

type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Result is reported by the provider once the payer finishes.
type Result struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Transaction string `json:"transaction,omitempty"`
}

func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Callbacks receive the terminal event of an opened widget. Exactly one of them is
// invoked, once.
type Callbacks struct {
	OnResult func(Result)
	OnCancel func()
}

// Launch is the provider-specific payload the client needs to show the widget.
type Launch struct {
	Provider    string  `json:"provider"`
	RedirectURL string  `json:"redirect_url,omitempty"`
	ScriptURL   string  `json:"script_url,omitempty"`
	Config      *Config `json:"config,omitempty"`
}

type Widget interface {
	Open(ctx context.Context, cfg Config, cb Callbacks) (Launch, error)
}

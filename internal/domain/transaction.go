package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusPending || s.IsTerminal()
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether a persisted transaction may move from s to next.
// A transaction leaves pending exactly once.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == TransactionStatusPending && next.IsTerminal()
}

// TransactionItem is a cart line captured at checkout time.
type TransactionItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// PendingTransaction is the provisional order record created before payment confirmation.
type PendingTransaction struct {
	ID          string            `json:"id"`
	Reference   string            `json:"reference"`
	Amount      decimal.Decimal   `json:"amount"`
	AmountMinor int64             `json:"amount_minor"`
	Currency    string            `json:"currency"`
	Status      TransactionStatus `json:"status"`
	Customer    CustomerRecord    `json:"customer"`
	Items       []TransactionItem `json:"items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Tax         decimal.Decimal   `json:"tax"`
	Total       decimal.Decimal   `json:"total"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ItemsFromSnapshot captures the lines of a cart snapshot for persistence.
func ItemsFromSnapshot(s CartSnapshot) []TransactionItem {
	items := make([]TransactionItem, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, TransactionItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Size:        l.Size,
			Quantity:    l.Quantity,
			Price:       l.Product.Price,
			Total:       l.Subtotal(),
		})
	}
	return items
}

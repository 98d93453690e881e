package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrAlreadyFinal        = errors.New("transaction already reached a final status")
	ErrInvalidStatus       = errors.New("invalid transaction status")
)

// Repository is the document store behind checkout.
// Consumers define this interface, not the store implementations
type Repository interface {
	CreatePendingTransaction(ctx context.Context, tx *domain.PendingTransaction) (string, error)
	UpdateTransactionStatus(ctx context.Context, id string, status domain.TransactionStatus) error
	UpsertCustomer(ctx context.Context, customer domain.CustomerRecord) error
	GetCustomer(ctx context.Context, email string) (*domain.CustomerRecord, error)
	GetTransaction(ctx context.Context, id string) (*domain.PendingTransaction, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.PendingTransaction, error)
	Close(ctx context.Context) error
}

func checkTerminal(status domain.TransactionStatus) error {
	if !status.IsTerminal() {
		return ErrInvalidStatus
	}
	return nil
}

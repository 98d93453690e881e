package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fjod/storefront/internal/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreRepository stores transactions and customers in the collections the web
// storefront reads: transactions get generated ids, customers are keyed by email.
type FirestoreRepository struct {
	Client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{Client: client}
}

func (r *FirestoreRepository) transactions() *firestore.CollectionRef {
	return r.Client.Collection("transactions")
}

func (r *FirestoreRepository) customers() *firestore.CollectionRef {
	return r.Client.Collection("customers")
}

func (r *FirestoreRepository) CreatePendingTransaction(ctx context.Context, tx *domain.PendingTransaction) (string, error) {
	ref := r.transactions().NewDoc()
	stamp(tx, ref.ID, time.Now().UTC())

	if _, err := ref.Create(ctx, toDoc(tx)); err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}
	return ref.ID, nil
}

func (r *FirestoreRepository) UpdateTransactionStatus(ctx context.Context, id string, st domain.TransactionStatus) error {
	if err := checkTerminal(st); err != nil {
		return err
	}

	ref := r.transactions().Doc(id)
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		snap, err := t.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrTransactionNotFound
			}
			return err
		}

		current, err := snap.DataAt("status")
		if err != nil {
			return err
		}
		if s, _ := current.(string); !domain.TransactionStatus(s).CanTransitionTo(st) {
			return ErrAlreadyFinal
		}

		return t.Update(ref, []firestore.Update{
			{Path: "status", Value: string(st)},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) || errors.Is(err, ErrAlreadyFinal) {
			return err
		}
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) UpsertCustomer(ctx context.Context, c domain.CustomerRecord) error {
	ref := r.customers().Doc(c.Email)
	now := time.Now().UTC()

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		data := map[string]interface{}{
			"fullName":    c.FullName,
			"email":       c.Email,
			"phoneNumber": c.Phone,
			"location":    c.Location,
			"updatedAt":   now,
		}

		_, err := t.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			data["createdAt"] = now
		case err != nil:
			return err
		}

		return t.Set(ref, data, firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) GetCustomer(ctx context.Context, email string) (*domain.CustomerRecord, error) {
	snap, err := r.customers().Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	var c domain.CustomerRecord
	if err := snap.DataTo(&c); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	return &c, nil
}

func (r *FirestoreRepository) GetTransaction(ctx context.Context, id string) (*domain.PendingTransaction, error) {
	snap, err := r.transactions().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return decodeTransaction(snap)
}

func (r *FirestoreRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.PendingTransaction, error) {
	q := r.transactions().
		Where("status", "==", string(domain.TransactionStatusPending)).
		Where("createdAt", "<", olderThan).
		OrderBy("createdAt", firestore.Asc).
		Limit(limit)

	it := q.Documents(ctx)
	defer it.Stop()

	var txs []domain.PendingTransaction
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list pending transactions: %w", err)
		}

		tx, err := decodeTransaction(snap)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

func (r *FirestoreRepository) Close(_ context.Context) error {
	return r.Client.Close()
}

func decodeTransaction(snap *firestore.DocumentSnapshot) (*domain.PendingTransaction, error) {
	var doc transactionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", snap.Ref.ID, err)
	}
	doc.ID = snap.Ref.ID
	return doc.toDomain(), nil
}

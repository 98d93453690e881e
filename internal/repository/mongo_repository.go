package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	db           *mongo.Database
	transactions *mongo.Collection
	customers    *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		db:           db,
		transactions: db.Collection("transactions"),
		customers:    db.Collection("customers"),
	}
}

func (m *mongoRepository) CreatePendingTransaction(ctx context.Context, tx *domain.PendingTransaction) (string, error) {
	stamp(tx, uuid.NewString(), time.Now().UTC())

	if _, err := m.transactions.InsertOne(ctx, toDoc(tx)); err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}
	return tx.ID, nil
}

func (m *mongoRepository) UpdateTransactionStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	if err := checkTerminal(status); err != nil {
		return err
	}

	filter := bson.M{"_id": id, "status": string(domain.TransactionStatusPending)}
	update := bson.M{
		"$set": bson.M{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := m.transactions.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Nothing pending matched: tell a missing record from a settled one.
	n, err := m.transactions.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check transaction: %w", err)
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return ErrAlreadyFinal
}

func (m *mongoRepository) UpsertCustomer(ctx context.Context, c domain.CustomerRecord) error {
	now := time.Now().UTC()

	filter := bson.M{"_id": c.Email}
	update := bson.M{
		"$set": bson.M{
			"full_name":    c.FullName,
			"email":        c.Email,
			"phone_number": c.Phone,
			"location":     c.Location,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.customers.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

func (m *mongoRepository) GetCustomer(ctx context.Context, email string) (*domain.CustomerRecord, error) {
	var c domain.CustomerRecord
	err := m.customers.FindOne(ctx, bson.M{"_id": email}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (m *mongoRepository) GetTransaction(ctx context.Context, id string) (*domain.PendingTransaction, error) {
	var doc transactionDoc
	err := m.transactions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *mongoRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.PendingTransaction, error) {
	filter := bson.M{
		"status":     string(domain.TransactionStatusPending),
		"created_at": bson.M{"$lt": olderThan},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := m.transactions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode pending transactions: %w", err)
	}

	txs := make([]domain.PendingTransaction, 0, len(docs))
	for _, d := range docs {
		txs = append(txs, *d.toDomain())
	}
	return txs, nil
}

func (m *mongoRepository) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}

	if _, err := m.transactions.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	return nil
}

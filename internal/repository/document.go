package repository

import (
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// transactionDoc is the stored shape of a PendingTransaction. Money is kept as a number,
// the way the storefront has always written it.
type transactionDoc struct {
	ID          string                `bson:"_id" firestore:"-"`
	Reference   string                `bson:"reference" firestore:"reference"`
	Amount      float64               `bson:"amount" firestore:"amount"`
	AmountMinor int64                 `bson:"amount_minor" firestore:"amountMinor"`
	Currency    string                `bson:"currency" firestore:"currency"`
	Status      string                `bson:"status" firestore:"status"`
	Customer    domain.CustomerRecord `bson:"customer" firestore:"customer"`
	Items       []itemDoc             `bson:"items" firestore:"items"`
	Subtotal    float64               `bson:"subtotal" firestore:"subtotal"`
	Tax         float64               `bson:"tax" firestore:"tax"`
	Total       float64               `bson:"total" firestore:"total"`
	CreatedAt   time.Time             `bson:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time             `bson:"updated_at" firestore:"updatedAt"`
}

type itemDoc struct {
	ProductID   string  `bson:"product_id" firestore:"productId"`
	ProductName string  `bson:"product_name" firestore:"productName"`
	Size        string  `bson:"size" firestore:"size"`
	Quantity    int     `bson:"quantity" firestore:"quantity"`
	Price       float64 `bson:"price" firestore:"price"`
	Total       float64 `bson:"total" firestore:"total"`
}

func toDoc(tx *domain.PendingTransaction) transactionDoc {
	items := make([]itemDoc, 0, len(tx.Items))
	for _, it := range tx.Items {
		items = append(items, itemDoc{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Price:       it.Price.InexactFloat64(),
			Total:       it.Total.InexactFloat64(),
		})
	}
	return transactionDoc{
		ID:          tx.ID,
		Reference:   tx.Reference,
		Amount:      tx.Amount.InexactFloat64(),
		AmountMinor: tx.AmountMinor,
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		Customer:    tx.Customer,
		Items:       items,
		Subtotal:    tx.Subtotal.InexactFloat64(),
		Tax:         tx.Tax.InexactFloat64(),
		Total:       tx.Total.InexactFloat64(),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func (d transactionDoc) toDomain() *domain.PendingTransaction {
	items := make([]domain.TransactionItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.TransactionItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Price:       decimal.NewFromFloat(it.Price),
			Total:       decimal.NewFromFloat(it.Total),
		})
	}
	return &domain.PendingTransaction{
		ID:          d.ID,
		Reference:   d.Reference,
		Amount:      decimal.NewFromFloat(d.Amount),
		AmountMinor: d.AmountMinor,
		Currency:    d.Currency,
		Status:      domain.TransactionStatus(d.Status),
		Customer:    d.Customer,
		Items:       items,
		Subtotal:    decimal.NewFromFloat(d.Subtotal),
		Tax:         decimal.NewFromFloat(d.Tax),
		Total:       decimal.NewFromFloat(d.Total),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// stamp fills in the fields every new pending record gets.
func stamp(tx *domain.PendingTransaction, id string, now time.Time) {
	tx.ID = id
	tx.Status = domain.TransactionStatusPending
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
}

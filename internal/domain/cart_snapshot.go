package domain

import "github.com/shopspring/decimal"

// CartLine is one (product, size) pairing in a cart. Quantity is always >= 1.
type CartLine struct {
	Product  Product `json:"product"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
}

// Matches reports whether the line is keyed by (productID, size).
func (l CartLine) Matches(productID, size string) bool {
	return l.Product.ID == productID && l.Size == size
}

// Subtotal returns price x quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is the fully recomputed view of cart lines and their total.
type CartSnapshot struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// NewCartSnapshot builds a snapshot from lines, computing the total from scratch.
func NewCartSnapshot(lines []CartLine) CartSnapshot {
	if lines == nil {
		lines = []CartLine{}
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return CartSnapshot{Lines: lines, Total: total}
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// ItemCount returns the number of units across all lines.
func (s CartSnapshot) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (s CartSnapshot) Clone() CartSnapshot {
	lines := make([]CartLine, len(s.Lines))
	for i, l := range s.Lines {
		l.Product.Sizes = append([]string(nil), l.Product.Sizes...)
		lines[i] = l
	}
	return CartSnapshot{Lines: lines, Total: s.Total}
}

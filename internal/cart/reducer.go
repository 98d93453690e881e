package cart

import "github.com/fjod/storefront/internal/domain"

// Reduce applies cmd to state and returns the next snapshot. It never mutates state;
// the total of the result is always recomputed from its lines.
func Reduce(state domain.CartSnapshot, cmd Command) domain.CartSnapshot {
	switch c := cmd.(type) {
	case AddItem:
		return addItem(state.Lines, c)
	case RemoveItem:
		return removeItem(state.Lines, c.ProductID, c.Size)
	case SetQuantity:
		if c.Quantity <= 0 {
			return removeItem(state.Lines, c.ProductID, c.Size)
		}
		return setQuantity(state.Lines, c)
	case Clear:
		return domain.NewCartSnapshot(nil)
	default:
		return state
	}
}

func addItem(lines []domain.CartLine, c AddItem) domain.CartSnapshot {
	next := make([]domain.CartLine, 0, len(lines)+1)
	found := false
	for _, l := range lines {
		if l.Matches(c.Product.ID, c.Size) {
			l.Quantity++
			found = true
		}
		next = append(next, l)
	}
	if !found {
		next = append(next, domain.CartLine{Product: c.Product, Size: c.Size, Quantity: 1})
	}
	return domain.NewCartSnapshot(next)
}

func removeItem(lines []domain.CartLine, productID, size string) domain.CartSnapshot {
	next := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if !l.Matches(productID, size) {
			next = append(next, l)
		}
	}
	return domain.NewCartSnapshot(next)
}

func setQuantity(lines []domain.CartLine, c SetQuantity) domain.CartSnapshot {
	next := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Matches(c.ProductID, c.Size) {
			l.Quantity = c.Quantity
		}
		next = append(next, l)
	}
	return domain.NewCartSnapshot(next)
}

package cart

import "github.com/fjod/storefront/internal/domain"

// Command is one of AddItem, RemoveItem, SetQuantity or Clear.
type Command interface {
	isCommand()
}

type AddItem struct {
	Product domain.Product
	Size    string
}

type RemoveItem struct {
	ProductID string
	Size      string
}

// SetQuantity with Quantity <= 0 behaves as RemoveItem.
type SetQuantity struct {
	ProductID string
	Size      string
	Quantity  int
}

type Clear struct{}

func (AddItem) isCommand()     {}
func (RemoveItem) isCommand()  {}
func (SetQuantity) isCommand() {}
func (Clear) isCommand()       {}

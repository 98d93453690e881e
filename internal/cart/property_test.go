package cart

import (
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var (
	propProducts = []domain.Product{foamRunner, slide, hoodie}
	propSizes    = []string{"9", "M"}
)

// decodeCommand maps a generated integer onto a command over a small product/size space
// so that sequences frequently hit existing lines.
func decodeCommand(n int) Command {
	p := propProducts[(n/4)%len(propProducts)]
	size := propSizes[(n/12)%len(propSizes)]
	switch n % 4 {
	case 0:
		return AddItem{Product: p, Size: size}
	case 1:
		return RemoveItem{ProductID: p.ID, Size: size}
	case 2:
		return SetQuantity{ProductID: p.ID, Size: size, Quantity: (n/24)%6 - 1}
	default:
		if n%40 == 3 {
			return Clear{}
		}
		return AddItem{Product: p, Size: size}
	}
}

func TestProperty_TotalMatchesLines(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("total equals sum of price x quantity after every command", prop.ForAll(
		func(ops []int) bool {
			s := NewStore()
			for _, op := range ops {
				snap := s.Dispatch(decodeCommand(op))

				expected := decimal.Zero
				for _, l := range snap.Lines {
					if l.Quantity < 1 {
						return false
					}
					expected = expected.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
				}
				if !expected.Equal(snap.Total) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.Property("lines are unique per (product, size)", prop.ForAll(
		func(ops []int) bool {
			s := NewStore()
			for _, op := range ops {
				s.Dispatch(decodeCommand(op))
			}
			seen := map[string]bool{}
			for _, l := range s.Snapshot().Lines {
				key := l.Product.ID + "/" + l.Size
				if seen[key] {
					return false
				}
				seen[key] = true
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.TestingRun(t)
}

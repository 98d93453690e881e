package cart

import (
	"sync"

	"github.com/fjod/storefront/internal/domain"
)

// Store is the canonical cart for one session. Mutations are totally ordered by call
// sequence and subscribers observe every resulting snapshot in that order.
type Store struct {
	mu     sync.Mutex
	state  domain.CartSnapshot
	subs   map[int]func(domain.CartSnapshot)
	nextID int
}

func NewStore() *Store {
	return NewStoreFrom(domain.NewCartSnapshot(nil))
}

// NewStoreFrom restores a store from a previously saved snapshot. The total is
// recomputed rather than trusted.
func NewStoreFrom(s domain.CartSnapshot) *Store {
	return &Store{
		state: domain.NewCartSnapshot(s.Clone().Lines),
		subs:  make(map[int]func(domain.CartSnapshot)),
	}
}

func (s *Store) AddItem(p domain.Product, size string) domain.CartSnapshot {
	return s.Dispatch(AddItem{Product: p, Size: size})
}

func (s *Store) RemoveItem(productID, size string) domain.CartSnapshot {
	return s.Dispatch(RemoveItem{ProductID: productID, Size: size})
}

func (s *Store) SetQuantity(productID, size string, quantity int) domain.CartSnapshot {
	return s.Dispatch(SetQuantity{ProductID: productID, Size: size, Quantity: quantity})
}

func (s *Store) Clear() domain.CartSnapshot {
	return s.Dispatch(Clear{})
}

// Dispatch applies cmd, notifies subscribers and returns a copy of the new snapshot.
func (s *Store) Dispatch(cmd Command) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, cmd)
	for _, id := range s.subscriberIDs() {
		s.subs[id](s.state.Clone())
	}
	return s.state.Clone()
}

func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive every new snapshot. fn runs while the store is
// locked and must not call back into the store.
func (s *Store) Subscribe(fn func(domain.CartSnapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// subscriberIDs returns ids in registration order.
func (s *Store) subscriberIDs() []int {
	ids := make([]int, 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if _, ok := s.subs[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

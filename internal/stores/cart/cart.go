// Package cart keeps the shopping cart. The cart lives in memory only.
package cart

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Item is a product in the cart with its quantity.
type Item struct {
	types.Product
	Quantity int `json:"quantity"`
}

// Store is the cart. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	log   *zap.Logger
	items []Item
}

func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log}
}

// Add puts quantity units of product in the cart, adding to the quantity
// already there for the same product id.
func (s *Store) Add(product types.Product, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID.Equal(product.ID) {
			s.items[i].Quantity += quantity
			s.log.Info("cart quantity increased", zap.Stringer("product", product.ID), zap.Int("quantity", s.items[i].Quantity))
			return
		}
	}
	s.items = append(s.items, Item{Product: product, Quantity: quantity})
	s.log.Info("added to cart", zap.Stringer("product", product.ID), zap.Int("quantity", quantity))
}

// UpdateQuantity sets the quantity of a product. Items whose quantity is
// zero or less leave the cart.
func (s *Store) UpdateQuantity(id types.ID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID.Equal(id) {
			it.Quantity = quantity
		}
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	s.items = kept
}

func (s *Store) Remove(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, it := range s.items {
		if !it.ID.Equal(id) {
			kept = append(kept, it)
		}
	}
	s.items = kept
}

// Items returns the cart contents in insertion order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.items...)
}

// Total is the sum of price times quantity.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, it := range s.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Package cart holds the transient shopping cart: an ordered list of lines
// with at most one line per catalog item.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ports/tradeshop/internal/models"
)

var (
	// ErrInvalidItem is returned by Add for an item without an id.
	ErrInvalidItem = errors.New("invalid item: missing id")
	// ErrEmptyCart is returned by Checkout when there is nothing to submit.
	ErrEmptyCart = errors.New("cart is empty")
)

// Store owns the cart lines for the lifetime of the process. It is never
// persisted.
type Store struct {
	mu    sync.Mutex
	lines []models.CartLine
}

// New returns an empty cart.
func New() *Store { return &Store{} }

// Add puts one unit of item into the cart. An existing line keeps its
// position and gains one unit; a new item is appended with quantity 1.
func (s *Store) Add(item models.CatalogItem) error {
	if item.ID == 0 {
		return ErrInvalidItem
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.CartLine, len(s.lines), len(s.lines)+1)
	copy(next, s.lines)
	if i := indexOf(next, item.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, models.CartLine{
			ItemID:   item.ID,
			ItemName: item.ItemName,
			Price:    item.Price,
			Quantity: 1,
		})
	}
	s.lines = next
	return nil
}

// Remove drops the line for id. Unknown ids are ignored.
func (s *Store) Remove(id models.ItemID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.CartLine, 0, len(s.lines))
	for _, l := range s.lines {
		if l.ItemID != id {
			next = append(next, l)
		}
	}
	s.lines = next
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}

// Lines returns a snapshot of the cart in insertion order.
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Count is the total number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Total is the summed price of all units.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, l := range s.lines {
		sum += l.LineTotal()
	}
	return sum
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

// Checkouter submits an order for the given lines.
type Checkouter interface {
	Checkout(ctx context.Context, lines []models.CartLine) error
}

// CheckoutFunc adapts a function to Checkouter.
type CheckoutFunc func(ctx context.Context, lines []models.CartLine) error

// Checkout calls f.
func (f CheckoutFunc) Checkout(ctx context.Context, lines []models.CartLine) error {
	return f(ctx, lines)
}

// Confirm accepts every order without a remote call.
var Confirm Checkouter = CheckoutFunc(func(context.Context, []models.CartLine) error { return nil })

// Receipt describes a settled checkout.
type Receipt struct {
	Lines []models.CartLine
	Units int
	Total float64
}

// Checkout submits a snapshot of the cart to co. The cart is only changed
// after co reports success, and then only by the submitted quantities, so
// units added while the order was in flight stay in the cart.
func (s *Store) Checkout(ctx context.Context, co Checkouter) (Receipt, error) {
	lines := s.Lines()
	if len(lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	if err := co.Checkout(ctx, lines); err != nil {
		return Receipt{}, fmt.Errorf("cart.Checkout: %w", err)
	}
	s.settle(lines)

	r := Receipt{Lines: lines}
	for _, l := range lines {
		r.Units += l.Quantity
		r.Total += l.LineTotal()
	}
	return r, nil
}

// settle subtracts submitted quantities and drops lines that reach zero.
func (s *Store) settle(submitted []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paid := make(map[models.ItemID]int, len(submitted))
	for _, l := range submitted {
		paid[l.ItemID] += l.Quantity
	}
	next := make([]models.CartLine, 0, len(s.lines))
	for _, l := range s.lines {
		l.Quantity -= paid[l.ItemID]
		if l.Quantity > 0 {
			next = append(next, l)
		}
	}
	s.lines = next
}

func indexOf(lines []models.CartLine, id models.ItemID) int {
	for i, l := range lines {
		if l.ItemID == id {
			return i
		}
	}
	return -1
}

package engine

import (
	"fmt"
	"sync"

	"github.com/openarb/arbengine/internal/domain"
)

// Book is the engine's in-memory order registry. The mutex guards both the
// map and the contents of registered orders: readers receive copies, and all
// mutation goes through Update.
type Book struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewBook creates an empty Book.
func NewBook() *Book {
	return &Book{orders: make(map[string]*domain.Order)}
}

// Register adds an order to the book. Registration happens at construction
// time, before validation, so skipped legs stay observable in PENDING state.
func (b *Book) Register(o *domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders[o.ID] = o
}

// Get returns a copy of the order, or ErrNotFound.
func (b *Book) Get(id string) (domain.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return *o, nil
}

// Active returns copies of all orders in a non-terminal, attention-needing
// status (PENDING, SUBMITTED, PARTIALLY_FILLED).
func (b *Book) Active() []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []domain.Order
	for _, o := range b.orders {
		if o.Status.Active() {
			out = append(out, *o)
		}
	}
	return out
}

// Update runs fn on the order under the write lock. The closure's error is
// returned unchanged; unknown IDs yield ErrNotFound.
func (b *Book) Update(id string, fn func(*domain.Order) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return fn(o)
}

// Len returns the number of registered orders.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

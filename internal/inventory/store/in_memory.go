package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
)

// InMemory implements ProductStore using an in-memory map.
// A single mutex makes every stock operation atomic.
type InMemory struct {
	mu       sync.RWMutex
	products map[int64]Product
	nextID   int64
}

// NewInMemoryStore creates a new empty in-memory store.
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[int64]Product),
		nextID:   1,
	}
}

// FindAll retrieves all products ordered by id.
func (s *InMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(Product) bool { return true }), nil
}

// FindByID retrieves a product by its ID.
func (s *InMemory) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	return &p, nil
}

// FindByName returns the lowest-id product whose name contains name.
func (s *InMemory) FindByName(_ context.Context, name string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.firstByName(name)
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	return &p, nil
}

// FindByCategory returns products in the category, ignoring case.
func (s *InMemory) FindByCategory(_ context.Context, category string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(p Product) bool {
		return strings.EqualFold(p.Category, category)
	}), nil
}

// FindByPriceRange returns products strictly inside the price range in the exact category.
func (s *InMemory) FindByPriceRange(_ context.Context, minPrice, maxPrice float64, category string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(p Product) bool {
		return p.Price > minPrice && p.Price < maxPrice && p.Category == category
	}), nil
}

// Create stores a new product under the next id.
func (s *InMemory) Create(_ context.Context, params ProductParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := productFrom(s.nextID, params)
	s.nextID++
	s.products[p.ID] = p
	return &p, nil
}

// Update overwrites an existing product.
func (s *InMemory) Update(_ context.Context, id int64, params ProductParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return nil, inverrors.ErrProductNotFound
	}
	p := productFrom(id, params)
	s.products[id] = p
	return &p, nil
}

// DeleteByID deletes a product by its ID.
func (s *InMemory) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return inverrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *InMemory) ReduceQuantity(_ context.Context, name string, amount int32) (*Product, error) {
	return s.mutate(name, reduceBy(amount))
}

func (s *InMemory) IncreaseQuantity(_ context.Context, name string, amount int32) (*Product, error) {
	return s.mutate(name, increaseBy(amount))
}

func (s *InMemory) SetQuantity(_ context.Context, name string, quantity int32) (*Product, error) {
	return s.mutate(name, setTo(quantity))
}

// Ping always succeeds.
func (s *InMemory) Ping(context.Context) error {
	return nil
}

// mutate applies fn to the first product matching name under the write lock.
// The product is saved only when fn succeeds.
func (s *InMemory) mutate(name string, fn func(p *Product) error) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.firstByName(name)
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	s.products[p.ID] = p
	return &p, nil
}

// firstByName must be called with the lock held.
func (s *InMemory) firstByName(name string) (Product, bool) {
	return firstMatch(s.filter(func(Product) bool { return true }), name)
}

// filter must be called with the lock held. The result is ordered by id.
func (s *InMemory) filter(keep func(Product) bool) []Product {
	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, func(a, b Product) int { return cmp.Compare(a.ID, b.ID) })
	return list
}

// Package store provides the persistence contract for products and its adapters.
package store

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
)

// Product is the persisted product record.
type Product struct {
	ID       int64
	Name     string
	Quantity int32
	Price    float64
	Category string
}

// ProductParams holds the mutable fields of a product.
type ProductParams struct {
	Name     string
	Quantity int32
	Price    float64
	Category string
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (in-memory, PostgreSQL, Redis).
//
// Name lookups match case-insensitive substrings. When several products match,
// the one with the lowest id is used.
type ProductStore interface {
	// FindAll returns all products ordered by id.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByName returns the first product whose name contains name, ignoring case.
	// Returns ErrProductNotFound if nothing matches.
	FindByName(ctx context.Context, name string) (*Product, error)

	// FindByCategory returns products whose category equals category, ignoring case.
	FindByCategory(ctx context.Context, category string) ([]Product, error)

	// FindByPriceRange returns products with min < price < max whose category equals category exactly.
	FindByPriceRange(ctx context.Context, minPrice, maxPrice float64, category string) ([]Product, error)

	// Create adds a new product and assigns its id.
	Create(ctx context.Context, params ProductParams) (*Product, error)

	// Update overwrites every mutable field of an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, params ProductParams) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// ReduceQuantity atomically decrements the quantity of the first product matching name.
	// Returns ErrProductNotFound if nothing matches and ErrInsufficientStock,
	// without writing, if the quantity is lower than amount.
	ReduceQuantity(ctx context.Context, name string, amount int32) (*Product, error)

	// IncreaseQuantity atomically increments the quantity of the first product matching name.
	// Returns ErrProductNotFound if nothing matches.
	IncreaseQuantity(ctx context.Context, name string, amount int32) (*Product, error)

	// SetQuantity overwrites the quantity of the first product matching name.
	// Returns ErrProductNotFound if nothing matches.
	SetQuantity(ctx context.Context, name string, quantity int32) (*Product, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}

func productFrom(id int64, params ProductParams) Product {
	return Product{
		ID:       id,
		Name:     params.Name,
		Quantity: params.Quantity,
		Price:    params.Price,
		Category: params.Category,
	}
}

// firstMatch expects products ordered by id.
func firstMatch(products []Product, name string) (Product, bool) {
	i := slices.IndexFunc(products, func(p Product) bool { return matchesName(p.Name, name) })
	if i < 0 {
		return Product{}, false
	}
	return products[i], true
}

// matchesName implements the name lookup rule for stores that filter in process.
func matchesName(productName, name string) bool {
	return strings.Contains(strings.ToLower(productName), strings.ToLower(name))
}

// reduceBy, increaseBy and setTo are the stock mutations shared by stores that filter in process.
func reduceBy(amount int32) func(p *Product) error {
	return func(p *Product) error {
		if p.Quantity < amount {
			return inverrors.ErrInsufficientStock
		}
		p.Quantity -= amount
		return nil
	}
}

func increaseBy(amount int32) func(p *Product) error {
	return func(p *Product) error {
		if p.Quantity > math.MaxInt32-amount {
			return fmt.Errorf("%w: quantity overflow", inverrors.ErrInvalidArgument)
		}
		p.Quantity += amount
		return nil
	}
}

func setTo(quantity int32) func(p *Product) error {
	return func(p *Product) error {
		p.Quantity = quantity
		return nil
	}
}

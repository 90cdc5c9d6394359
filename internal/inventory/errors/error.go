// Package errors provides the domain errors of the inventory.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when no product matches an id or a name.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a category lookup yields no products.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrNoProductsInRange is returned when a price range search yields no products.
	// It matches ErrProductNotFound with errors.Is.
	ErrNoProductsInRange = fmt.Errorf("no products in price range: %w", ErrProductNotFound)
	// ErrInsufficientStock is returned when a reduction exceeds the available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidArgument is returned for negative prices or quantities and other malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

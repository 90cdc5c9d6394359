// Package service provides the inventory business logic: the stock state machine and the product queries.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InventoryService defines the operations that change products and their stock.
// Anticipated stock preconditions are reported as an Outcome, not as an error.
type InventoryService interface {
	// ReduceQuantity takes amount units from the first product whose name contains name.
	// Returns Purchased, InsufficientStock or NotFound. A negative amount is ErrInvalidArgument.
	ReduceQuantity(ctx context.Context, name string, amount int32) (Outcome, error)

	// RestoreQuantity gives amount units back to the first product whose name contains name.
	// Returns Restored or NotFound. A negative amount is ErrInvalidArgument.
	RestoreQuantity(ctx context.Context, name string, amount int32) (Outcome, error)

	// SetQuantity overwrites the quantity of the first product whose name contains name.
	// Returns Updated, ErrProductNotFound or ErrInvalidArgument.
	SetQuantity(ctx context.Context, name string, quantity int32) (Outcome, error)

	// AddProduct stores a new product and returns its id.
	// Returns ErrInvalidArgument if price or quantity is negative.
	AddProduct(ctx context.Context, product ProductCreateDto) (int64, error)

	// UpdateProduct overwrites every field of an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateProduct(ctx context.Context, id int64, product ProductCreateDto) (*ProductDto, error)

	// DeleteProduct removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteProduct(ctx context.Context, id int64) error
}

// QueryService defines the read-only product lookups.
type QueryService interface {
	// FindAll returns all products. Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindByID returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// FindByName returns the first product whose name contains name, ignoring case.
	FindByName(ctx context.Context, name string) (*ProductDto, error)

	// FindByCategory returns ErrCategoryNotFound when the category has no products.
	FindByCategory(ctx context.Context, category string) ([]ProductDto, error)

	// FindByPriceRange returns products priced strictly between minPrice and maxPrice in category.
	// Returns ErrNoProductsInRange when nothing matches.
	FindByPriceRange(ctx context.Context, minPrice, maxPrice float64, category string) ([]ProductDto, error)
}

// ProductService is everything the transports need.
type ProductService interface {
	InventoryService
	QueryService

	// Ready reports whether the backing store is reachable.
	Ready(ctx context.Context) error
}

// Service implements ProductService on top of a ProductStore.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
	stockOps   metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository and publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("inventory-service")
	stockOps, err := meter.Int64Counter("inventory_stock_operations",
		metric.WithDescription("Total number of stock operations by outcome"))
	if err != nil {
		panic(fmt.Sprintf("failed to create inventory_stock_operations counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		repository: repo,
		publisher:  publisher,
		logger:     logger.With("component", "service"),
		stockOps:   stockOps,
	}
}

// ProductCreateDto represents the data transfer object for creating or replacing a product.
type ProductCreateDto struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Quantity int32   `json:"quantity" validate:"min=0"`
	Price    float64 `json:"price"    validate:"min=0"`
	Category string  `json:"category" validate:"required,max=100"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Quantity int32   `json:"quantity"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

func (s *Service) Ready(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:       product.ID,
		Name:     product.Name,
		Quantity: product.Quantity,
		Price:    product.Price,
		Category: product.Category,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}

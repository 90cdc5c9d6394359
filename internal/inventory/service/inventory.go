package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ReduceQuantity decrements the stock of the first product matching name.
// The check and the write happen atomically in the store, so concurrent purchases never oversell.
func (s *Service) ReduceQuantity(ctx context.Context, name string, amount int32) (Outcome, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: amount must not be negative, got %d", inverrors.ErrInvalidArgument, amount)
	}
	product, err := s.repository.ReduceQuantity(ctx, name, amount)
	switch {
	case errors.Is(err, inverrors.ErrProductNotFound):
		return s.record(ctx, events.OperationReduce, NotFound), nil
	case errors.Is(err, inverrors.ErrInsufficientStock):
		s.logger.InfoContext(ctx, "Insufficient stock", "name", name, "requested", amount)
		return s.record(ctx, events.OperationReduce, InsufficientStock), nil
	case err != nil:
		return 0, fmt.Errorf("failed to reduce quantity of %q: %w", name, err)
	}
	s.publish(ctx, product, events.OperationReduce, -amount)
	return s.record(ctx, events.OperationReduce, Purchased), nil
}

// RestoreQuantity increments the stock of the first product matching name.
func (s *Service) RestoreQuantity(ctx context.Context, name string, amount int32) (Outcome, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: amount must not be negative, got %d", inverrors.ErrInvalidArgument, amount)
	}
	product, err := s.repository.IncreaseQuantity(ctx, name, amount)
	switch {
	case errors.Is(err, inverrors.ErrProductNotFound):
		return s.record(ctx, events.OperationRestore, NotFound), nil
	case err != nil:
		return 0, fmt.Errorf("failed to restore quantity of %q: %w", name, err)
	}
	s.publish(ctx, product, events.OperationRestore, amount)
	return s.record(ctx, events.OperationRestore, Restored), nil
}

// SetQuantity overwrites the stock of the first product matching name.
func (s *Service) SetQuantity(ctx context.Context, name string, quantity int32) (Outcome, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("%w: quantity must not be negative, got %d", inverrors.ErrInvalidArgument, quantity)
	}
	product, err := s.repository.SetQuantity(ctx, name, quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to set quantity of %q: %w", name, err)
	}
	s.publish(ctx, product, events.OperationSet, 0)
	return s.record(ctx, events.OperationSet, Updated), nil
}

// AddProduct creates a new product. Duplicate names are allowed.
func (s *Service) AddProduct(ctx context.Context, product ProductCreateDto) (int64, error) {
	if err := validateProduct(product); err != nil {
		return 0, err
	}
	created, err := s.repository.Create(ctx, toParams(product))
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.InfoContext(ctx, "Product added", "id", created.ID, "name", created.Name)
	return created.ID, nil
}

// UpdateProduct replaces all fields of the product with the given id.
func (s *Service) UpdateProduct(ctx context.Context, id int64, product ProductCreateDto) (*ProductDto, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	updated, err := s.repository.Update(ctx, id, toParams(product))
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	return toDto(updated), nil
}

// DeleteProduct deletes a product by its ID.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	return nil
}

// validateProduct enforces the price and quantity invariants. NaN prices are rejected.
func validateProduct(product ProductCreateDto) error {
	if !(product.Price >= 0) {
		return fmt.Errorf("%w: price must not be negative, got %v", inverrors.ErrInvalidArgument, product.Price)
	}
	if product.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative, got %d", inverrors.ErrInvalidArgument, product.Quantity)
	}
	return nil
}

func toParams(product ProductCreateDto) store.ProductParams {
	return store.ProductParams{
		Name:     product.Name,
		Quantity: product.Quantity,
		Price:    product.Price,
		Category: product.Category,
	}
}

func (s *Service) record(ctx context.Context, operation string, outcome Outcome) Outcome {
	s.stockOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome.String()),
	))
	return outcome
}

// publish reports a persisted stock change. Failures are logged only.
func (s *Service) publish(ctx context.Context, product *store.Product, operation string, delta int32) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.StockChangedEvent{
		Carrier:    carrier,
		EventID:    uuid.New(),
		ProductID:  product.ID,
		Name:       product.Name,
		Category:   product.Category,
		Operation:  operation,
		Delta:      delta,
		Quantity:   product.Quantity,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish StockChangedEvent", "product_id", product.ID, "error", err)
	}
}

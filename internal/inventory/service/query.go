package service

import (
	"context"
	"fmt"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
)

// FindAll retrieves a list of all products and returns them as ProductDTOs.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

func (s *Service) FindByName(ctx context.Context, name string) (*ProductDto, error) {
	product, err := s.repository.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by name %q: %w", name, err)
	}
	return toDto(product), nil
}

func (s *Service) FindByCategory(ctx context.Context, category string) ([]ProductDto, error) {
	products, err := s.repository.FindByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by category %q: %w", category, err)
	}
	if len(products) == 0 {
		return nil, inverrors.ErrCategoryNotFound
	}
	return toDtos(products), nil
}

func (s *Service) FindByPriceRange(ctx context.Context, minPrice, maxPrice float64, category string) ([]ProductDto, error) {
	products, err := s.repository.FindByPriceRange(ctx, minPrice, maxPrice, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by price range: %w", err)
	}
	if len(products) == 0 {
		return nil, inverrors.ErrNoProductsInRange
	}
	return toDtos(products), nil
}

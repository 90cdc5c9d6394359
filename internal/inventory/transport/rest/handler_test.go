package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockProductService is a testify mock of service.ProductService.
type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) ReduceQuantity(ctx context.Context, name string, amount int32) (service.Outcome, error) {
	args := m.Called(ctx, name, amount)
	return args.Get(0).(service.Outcome), args.Error(1)
}

func (m *mockProductService) RestoreQuantity(ctx context.Context, name string, amount int32) (service.Outcome, error) {
	args := m.Called(ctx, name, amount)
	return args.Get(0).(service.Outcome), args.Error(1)
}

func (m *mockProductService) SetQuantity(ctx context.Context, name string, quantity int32) (service.Outcome, error) {
	args := m.Called(ctx, name, quantity)
	return args.Get(0).(service.Outcome), args.Error(1)
}

func (m *mockProductService) AddProduct(ctx context.Context, product service.ProductCreateDto) (int64, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProductService) UpdateProduct(ctx context.Context, id int64, product service.ProductCreateDto) (*service.ProductDto, error) {
	args := m.Called(ctx, id, product)
	if dto, ok := args.Get(0).(*service.ProductDto); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductService) FindAll(ctx context.Context) ([]service.ProductDto, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]service.ProductDto); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) FindByID(ctx context.Context, id int64) (*service.ProductDto, error) {
	args := m.Called(ctx, id)
	if dto, ok := args.Get(0).(*service.ProductDto); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) FindByName(ctx context.Context, name string) (*service.ProductDto, error) {
	args := m.Called(ctx, name)
	if dto, ok := args.Get(0).(*service.ProductDto); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) FindByCategory(ctx context.Context, category string) ([]service.ProductDto, error) {
	args := m.Called(ctx, category)
	if list, ok := args.Get(0).([]service.ProductDto); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) FindByPriceRange(ctx context.Context, minPrice, maxPrice float64, category string) ([]service.ProductDto, error) {
	args := m.Called(ctx, minPrice, maxPrice, category)
	if list, ok := args.Get(0).([]service.ProductDto); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) Ready(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var (
	hammerDto  = service.ProductDto{ID: 1, Name: "Hammer", Quantity: 10, Price: 15.5, Category: "Tools"}
	hammerJSON = `{"id":1,"name":"Hammer","quantity":10,"price":15.5,"category":"Tools"}`
	errBackend = errors.New("backend unavailable")
	anyCtx     = mock.Anything
)

// serve routes the request through the real router so path patterns are exercised.
func serve(svc *mockProductService, method, target, body string) *httptest.ResponseRecorder {
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func Test_Handler_FindByID(t *testing.T) {
	testCases := []struct {
		name         string
		setup        func(m *mockProductService)
		productID    string
		expectedCode int
		expectedBody string
		expectedType string
	}{
		{
			name:         "Success - product found",
			setup:        func(m *mockProductService) { m.On("FindByID", anyCtx, int64(1)).Return(&hammerDto, nil) },
			productID:    "1",
			expectedCode: http.StatusOK,
			expectedBody: hammerJSON,
			expectedType: "application/json",
		},
		{
			name:         "Error - product not found",
			setup:        func(m *mockProductService) { m.On("FindByID", anyCtx, int64(999)).Return(nil, inverrors.ErrProductNotFound) },
			productID:    "999",
			expectedCode: http.StatusNotFound,
			expectedBody: "Product not found: 999",
			expectedType: "text/plain; charset=utf-8",
		},
		{
			name:         "Error - service error",
			setup:        func(m *mockProductService) { m.On("FindByID", anyCtx, int64(2)).Return(nil, errBackend) },
			productID:    "2",
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Internal server error"}`,
			expectedType: "application/json",
		},
		{
			name:         "Error - invalid id",
			setup:        func(*mockProductService) {},
			productID:    "abc",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid ID: abc"}`,
			expectedType: "application/json",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := &mockProductService{}
			tc.setup(svc)

			// when
			rr := serve(svc, http.MethodGet, "/products/findById/"+tc.productID, "")

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, tc.expectedType, rr.Header().Get("Content-Type"))
			if tc.expectedType == "application/json" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			} else {
				assert.Equal(t, tc.expectedBody, rr.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func Test_Handler_FindAll(t *testing.T) {
	t.Run("Success - products found", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("FindAll", anyCtx).Return([]service.ProductDto{hammerDto}, nil)
		rr := serve(svc, http.MethodGet, "/products/displayAll", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "["+hammerJSON+"]", rr.Body.String())
	})
	t.Run("Success - no products", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("FindAll", anyCtx).Return([]service.ProductDto{}, nil)
		rr := serve(svc, http.MethodGet, "/products/displayAll", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})
	t.Run("Error - service error", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("FindAll", anyCtx).Return(nil, errBackend)
		rr := serve(svc, http.MethodGet, "/products/displayAll", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch products"}`, rr.Body.String())
	})
}

func Test_Handler_FindByName(t *testing.T) {
	t.Run("Success - escaped name", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("FindByName", anyCtx, "claw hammer").Return(&hammerDto, nil)
		rr := serve(svc, http.MethodGet, "/products/findByName/claw%20hammer", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, hammerJSON, rr.Body.String())
		svc.AssertExpectations(t)
	})
	t.Run("Error - not found", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("FindByName", anyCtx, "wrench").Return(nil, fmt.Errorf("lookup: %w", inverrors.ErrProductNotFound))
		rr := serve(svc, http.MethodGet, "/products/findByName/wrench", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Product not found: wrench", rr.Body.String())
	})
}

func Test_Handler_FindByCategory(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("FindByCategory", anyCtx, "tools").Return([]service.ProductDto{hammerDto}, nil)
		rr := serve(svc, http.MethodGet, "/products/findByCategory/tools", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "["+hammerJSON+"]", rr.Body.String())
	})
	t.Run("Error - category not found", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("FindByCategory", anyCtx, "Toys").Return(nil, inverrors.ErrCategoryNotFound)
		rr := serve(svc, http.MethodGet, "/products/findByCategory/Toys", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Category not found: Toys", rr.Body.String())
	})
}

func Test_Handler_FilterByPrice(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		setup        func(m *mockProductService)
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success",
			query:        "?minPrice=10&maxPrice=20&category=Tools",
			setup:        func(m *mockProductService) { m.On("FindByPriceRange", anyCtx, 10.0, 20.0, "Tools").Return([]service.ProductDto{hammerDto}, nil) },
			expectedCode: http.StatusOK,
			expectedBody: "[" + hammerJSON + "]",
		},
		{
			name:  "Error - nothing in range",
			query: "?minPrice=10&maxPrice=12.5&category=Tools",
			setup: func(m *mockProductService) {
				m.On("FindByPriceRange", anyCtx, 10.0, 12.5, "Tools").Return(nil, inverrors.ErrNoProductsInRange)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: "Product not found: No products found in category 'Tools' within price range 10.0 to 12.5",
		},
		{
			name:         "Error - missing category",
			query:        "?minPrice=10&maxPrice=20",
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"category url parameter is required"}`,
		},
		{
			name:         "Error - malformed price",
			query:        "?minPrice=cheap&maxPrice=20&category=Tools",
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid minPrice number: cheap"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := &mockProductService{}
			tc.setup(svc)
			// when
			rr := serve(svc, http.MethodGet, "/products/filterByPrice"+tc.query, "")
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, tc.expectedBody, strings.TrimSpace(rr.Body.String()))
			svc.AssertExpectations(t)
		})
	}
}

func Test_Handler_AddProduct(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		setup        func(m *mockProductService)
		expectedCode int
		expectedBody string
	}{
		{
			name: "Success",
			body: `{"name":"Hammer","quantity":10,"price":15.5,"category":"Tools"}`,
			setup: func(m *mockProductService) {
				m.On("AddProduct", anyCtx, service.ProductCreateDto{Name: "Hammer", Quantity: 10, Price: 15.5, Category: "Tools"}).Return(int64(1), nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: "Product added successfully",
		},
		{
			name:         "Error - negative price",
			body:         `{"name":"Hammer","quantity":10,"price":-1,"category":"Tools"}`,
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Price":"failed on rule: min"}}`,
		},
		{
			name:         "Error - missing name",
			body:         `{"quantity":1,"price":1,"category":"Tools"}`,
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Name":"failed on rule: required"}}`,
		},
		{
			name:         "Error - malformed body",
			body:         `{"name":`,
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid request body"}`,
		},
		{
			name: "Error - store failure",
			body: `{"name":"Hammer","quantity":10,"price":15.5,"category":"Tools"}`,
			setup: func(m *mockProductService) {
				m.On("AddProduct", anyCtx, mock.Anything).Return(int64(0), errBackend)
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Failed to create product"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := &mockProductService{}
			tc.setup(svc)
			// when
			rr := serve(svc, http.MethodPost, "/products/addProduct", tc.body)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, tc.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func Test_Handler_UpdateAndDelete(t *testing.T) {
	t.Run("Update success", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("UpdateProduct", anyCtx, int64(1), mock.AnythingOfType("service.ProductCreateDto")).Return(&hammerDto, nil)
		rr := serve(svc, http.MethodPut, "/products/updateProduct/1", `{"name":"Hammer","quantity":10,"price":15.5,"category":"Tools"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, hammerJSON, rr.Body.String())
	})
	t.Run("Update not found", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("UpdateProduct", anyCtx, int64(7), mock.Anything).Return(nil, inverrors.ErrProductNotFound)
		rr := serve(svc, http.MethodPut, "/products/updateProduct/7", `{"name":"Hammer","quantity":10,"price":15.5,"category":"Tools"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Product not found: 7", rr.Body.String())
	})
	t.Run("Delete success", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("DeleteProduct", anyCtx, int64(1)).Return(nil)
		rr := serve(svc, http.MethodDelete, "/products/removeProduct/1", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Product deleted successfully!", rr.Body.String())
	})
	t.Run("Delete not found", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("DeleteProduct", anyCtx, int64(5)).Return(inverrors.ErrProductNotFound)
		rr := serve(svc, http.MethodDelete, "/products/removeProduct/5", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Product not found: 5", rr.Body.String())
	})
}

func Test_Handler_StockEndpoints(t *testing.T) {
	testCases := []struct {
		name         string
		method       string
		target       string
		setup        func(m *mockProductService)
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Reduce - purchased",
			target:       "/products/findByName/Hammer/reduceQuantity?quantity=4",
			setup:        func(m *mockProductService) { m.On("ReduceQuantity", anyCtx, "Hammer", int32(4)).Return(service.Purchased, nil) },
			expectedCode: http.StatusOK,
			expectedBody: "Purchase successful!",
		},
		{
			name:         "Reduce - insufficient",
			target:       "/products/findByName/Hammer/reduceQuantity?quantity=100",
			setup:        func(m *mockProductService) { m.On("ReduceQuantity", anyCtx, "Hammer", int32(100)).Return(service.InsufficientStock, nil) },
			expectedCode: http.StatusOK,
			expectedBody: "Not enough quantity",
		},
		{
			name:         "Reduce - not found",
			target:       "/products/findByName/Wrench/reduceQuantity?quantity=1",
			setup:        func(m *mockProductService) { m.On("ReduceQuantity", anyCtx, "Wrench", int32(1)).Return(service.NotFound, nil) },
			expectedCode: http.StatusOK,
			expectedBody: "No such products found",
		},
		{
			name:         "Reduce - negative quantity",
			target:       "/products/findByName/Hammer/reduceQuantity?quantity=-1",
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid quantity number: -1"}`,
		},
		{
			name:         "Reduce - missing quantity",
			target:       "/products/findByName/Hammer/reduceQuantity",
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"quantity url parameter is required"}`,
		},
		{
			name:         "Restore - restored",
			target:       "/products/Hammer/restore?quantity=4",
			setup:        func(m *mockProductService) { m.On("RestoreQuantity", anyCtx, "Hammer", int32(4)).Return(service.Restored, nil) },
			expectedCode: http.StatusOK,
			expectedBody: "Quantity restored after order deletion!",
		},
		{
			name:         "Restore - not found",
			target:       "/products/Wrench/restore?quantity=4",
			setup:        func(m *mockProductService) { m.On("RestoreQuantity", anyCtx, "Wrench", int32(4)).Return(service.NotFound, nil) },
			expectedCode: http.StatusOK,
			expectedBody: "Product not found",
		},
		{
			name: "Restore - overflow",
			target: "/products/Hammer/restore?quantity=5",
			setup: func(m *mockProductService) {
				m.On("RestoreQuantity", anyCtx, "Hammer", int32(5)).Return(service.Outcome(0), fmt.Errorf("%w: quantity overflow", inverrors.ErrInvalidArgument))
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"invalid argument: quantity overflow"}`,
		},
		{
			name:         "UpdateQuantity - updated",
			target:       "/products/updateQuantity?name=Hammer&quantity=3",
			setup:        func(m *mockProductService) { m.On("SetQuantity", anyCtx, "Hammer", int32(3)).Return(service.Updated, nil) },
			expectedCode: http.StatusOK,
			expectedBody: "Quantity updated successfully",
		},
		{
			name:         "UpdateQuantity - not found",
			target:       "/products/updateQuantity?name=Wrench&quantity=3",
			setup:        func(m *mockProductService) { m.On("SetQuantity", anyCtx, "Wrench", int32(3)).Return(service.Outcome(0), inverrors.ErrProductNotFound) },
			expectedCode: http.StatusNotFound,
			expectedBody: "Product not found: Wrench",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := &mockProductService{}
			tc.setup(svc)
			// when
			rr := serve(svc, http.MethodPut, tc.target, "")
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, tc.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func Test_Handler_Probes(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		rr := serve(&mockProductService{}, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("ready", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("Ready", anyCtx).Return(nil)
		rr := serve(svc, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("not ready", func(t *testing.T) {
		svc := &mockProductService{}
		svc.On("Ready", anyCtx).Return(errBackend)
		rr := serve(svc, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func Test_Handler_ManagementRoutesGuarded(t *testing.T) {
	// given
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	svc := &mockProductService{}
	svc.On("ReduceQuantity", anyCtx, "Hammer", int32(1)).Return(service.Purchased, nil)
	svc.On("FindByID", anyCtx, int64(1)).Return(&hammerDto, nil)
	router := chi.NewRouter()
	NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(router, deny)

	testCases := []struct {
		method       string
		target       string
		expectedCode int
	}{
		{http.MethodPost, "/products/addProduct", http.StatusUnauthorized},
		{http.MethodPut, "/products/updateProduct/1", http.StatusUnauthorized},
		{http.MethodDelete, "/products/removeProduct/1", http.StatusUnauthorized},
		{http.MethodPut, "/products/updateQuantity?name=Hammer&quantity=5", http.StatusUnauthorized},
		{http.MethodPut, "/products/findByName/Hammer/reduceQuantity?quantity=1", http.StatusOK},
		{http.MethodGet, "/products/findById/1", http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rr := httptest.NewRecorder()

			// when
			router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.target, nil))

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
	svc.AssertNotCalled(t, "AddProduct", anyCtx, mock.Anything)
}

func Test_formatPrice(t *testing.T) {
	assert.Equal(t, "10.0", formatPrice(10))
	assert.Equal(t, "12.5", formatPrice(12.5))
	assert.Equal(t, "0.0", formatPrice(0))
}

package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/pkg/server"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) FindByID(ctx context.Context, id int64) (*service.ProductDto, error) {
	args := m.Called(ctx, id)
	var product *service.ProductDto
	if args.Get(0) != nil {
		product = args.Get(0).(*service.ProductDto)
	}
	return product, args.Error(1)
}

func (m *MockProductService) FindByName(ctx context.Context, name string) (*service.ProductDto, error) {
	args := m.Called(ctx, name)
	var product *service.ProductDto
	if args.Get(0) != nil {
		product = args.Get(0).(*service.ProductDto)
	}
	return product, args.Error(1)
}

func (m *MockProductService) ReduceQuantity(ctx context.Context, name string, amount int32) (service.Outcome, error) {
	args := m.Called(ctx, name, amount)
	return args.Get(0).(service.Outcome), args.Error(1)
}

func (m *MockProductService) RestoreQuantity(ctx context.Context, name string, amount int32) (service.Outcome, error) {
	args := m.Called(ctx, name, amount)
	return args.Get(0).(service.Outcome), args.Error(1)
}

// startServer serves the inventory API over bufconn and returns a client for it.
func startServer(t *testing.T, svc ProductService) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lis := bufconn.Listen(1024 * 1024)
	grpcServer, _ := server.NewGRPCServer(logger, false, func(s *grpc.Server) {
		RegisterInventoryServer(s, NewServer(svc, logger))
	})
	go func() {
		_ = grpcServer.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		grpcServer.Stop()
		_ = lis.Close()
	})
	return NewClient(conn)
}

func TestInventoryService_GetProduct(t *testing.T) {
	ctx := context.Background()
	hammer := &service.ProductDto{ID: 7, Name: "Hammer", Quantity: 10, Price: 15.5, Category: "Tools"}

	testCases := []struct {
		name         string
		mockProduct  *service.ProductDto
		mockError    error
		expectedCode codes.Code
	}{
		{name: "success", mockProduct: hammer, expectedCode: codes.OK},
		{name: "not found", mockError: inverrors.ErrProductNotFound, expectedCode: codes.NotFound},
		{name: "internal error", mockError: errors.New("internal error"), expectedCode: codes.Internal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockSvc := new(MockProductService)
			client := startServer(t, mockSvc)
			mockSvc.On("FindByID", mock.Anything, int64(7)).Return(tc.mockProduct, tc.mockError)

			// when
			res, err := client.GetProduct(ctx, 7)

			// then
			if tc.expectedCode == codes.OK {
				require.NoError(t, err)
				require.Equal(t, tc.mockProduct, res)
			} else {
				require.Nil(t, res)
				require.Equal(t, tc.expectedCode, status.Code(err))
			}
			mockSvc.AssertExpectations(t)
		})
	}

	t.Run("invalid id", func(t *testing.T) {
		// given
		mockSvc := new(MockProductService)
		client := startServer(t, mockSvc)

		// when
		_, err := client.GetProduct(ctx, 0)

		// then
		require.Equal(t, codes.InvalidArgument, status.Code(err))
		mockSvc.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestInventoryService_FindByName(t *testing.T) {
	// given
	mockSvc := new(MockProductService)
	client := startServer(t, mockSvc)
	hammer := &service.ProductDto{ID: 1, Name: "Hammer", Quantity: 10, Price: 15.5, Category: "Tools"}
	mockSvc.On("FindByName", mock.Anything, "ham").Return(hammer, nil)
	mockSvc.On("FindByName", mock.Anything, "wrench").Return(nil, inverrors.ErrProductNotFound)

	// when
	found, err := client.FindByName(context.Background(), "ham")
	_, notFoundErr := client.FindByName(context.Background(), "wrench")

	// then
	require.NoError(t, err)
	require.Equal(t, hammer, found)
	require.Equal(t, codes.NotFound, status.Code(notFoundErr))
}

func TestInventoryService_StockOperations(t *testing.T) {
	testCases := []struct {
		name         string
		call         func(c *Client) (service.Outcome, error)
		setup        func(m *MockProductService)
		expected     service.Outcome
		expectedCode codes.Code
	}{
		{
			name:     "reduce purchased",
			call:     func(c *Client) (service.Outcome, error) { return c.ReduceQuantity(context.Background(), "Hammer", 4) },
			setup:    func(m *MockProductService) { m.On("ReduceQuantity", mock.Anything, "Hammer", int32(4)).Return(service.Purchased, nil) },
			expected: service.Purchased,
		},
		{
			name:     "reduce insufficient",
			call:     func(c *Client) (service.Outcome, error) { return c.ReduceQuantity(context.Background(), "Hammer", 400) },
			setup:    func(m *MockProductService) { m.On("ReduceQuantity", mock.Anything, "Hammer", int32(400)).Return(service.InsufficientStock, nil) },
			expected: service.InsufficientStock,
		},
		{
			name:         "reduce negative",
			call:         func(c *Client) (service.Outcome, error) { return c.ReduceQuantity(context.Background(), "Hammer", -1) },
			setup:        func(*MockProductService) {},
			expectedCode: codes.InvalidArgument,
		},
		{
			name:     "restore not found",
			call:     func(c *Client) (service.Outcome, error) { return c.RestoreQuantity(context.Background(), "Wrench", 1) },
			setup:    func(m *MockProductService) { m.On("RestoreQuantity", mock.Anything, "Wrench", int32(1)).Return(service.NotFound, nil) },
			expected: service.NotFound,
		},
		{
			name: "restore overflow",
			call: func(c *Client) (service.Outcome, error) { return c.RestoreQuantity(context.Background(), "Hammer", 1) },
			setup: func(m *MockProductService) {
				m.On("RestoreQuantity", mock.Anything, "Hammer", int32(1)).Return(service.Outcome(0), inverrors.ErrInvalidArgument)
			},
			expectedCode: codes.InvalidArgument,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockSvc := new(MockProductService)
			tc.setup(mockSvc)
			client := startServer(t, mockSvc)

			// when
			outcome, err := tc.call(client)

			// then
			if tc.expectedCode != codes.OK {
				require.Equal(t, tc.expectedCode, status.Code(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, outcome)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestServer_RejectsMalformedRequests(t *testing.T) {
	srv := NewServer(new(MockProductService), slog.New(slog.NewTextHandler(io.Discard, nil)))
	testCases := []struct {
		name   string
		fields map[string]any
	}{
		{name: "missing name", fields: map[string]any{"quantity": 1}},
		{name: "name is not a string", fields: map[string]any{"name": 3, "quantity": 1}},
		{name: "fractional quantity", fields: map[string]any{"name": "Hammer", "quantity": 1.5}},
		{name: "quantity overflows int32", fields: map[string]any{"name": "Hammer", "quantity": 1 << 40}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := structpb.NewStruct(tc.fields)
			require.NoError(t, err)
			_, err = srv.ReduceQuantity(context.Background(), req)
			require.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

// Package inventoryctl implements the inventoryctl command line client of the inventory gRPC API.
package inventoryctl

import (
	"context"
	"fmt"
	"io"

	"github.com/abgdnv/inventory/internal/inventory/service"
	grpcImpl "github.com/abgdnv/inventory/internal/inventory/transport/grpc"
	"github.com/abgdnv/inventory/pkg/client/grpc/interceptors"
	"github.com/abgdnv/inventory/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// InventoryClient is the part of the gRPC API the commands call.
type InventoryClient interface {
	GetProduct(ctx context.Context, id int64, opts ...grpc.CallOption) (*service.ProductDto, error)
	FindByName(ctx context.Context, name string, opts ...grpc.CallOption) (*service.ProductDto, error)
	ReduceQuantity(ctx context.Context, name string, quantity int32, opts ...grpc.CallOption) (service.Outcome, error)
	RestoreQuantity(ctx context.Context, name string, quantity int32, opts ...grpc.CallOption) (service.Outcome, error)
}

// Dialer opens a client for the given configuration. The returned closer releases the connection.
type Dialer func(cfg config.GrpcClientConfig, opts ...grpc.DialOption) (InventoryClient, io.Closer, error)

// Dial connects to the inventory gRPC API. Calls go through the request id, circuit breaker,
// retry and timeout interceptors in that order, so every retry attempt gets its own deadline.
func Dial(cfg config.GrpcClientConfig, opts ...grpc.DialOption) (InventoryClient, io.Closer, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(
			interceptors.UnaryClientRequestIDInterceptor,
			interceptors.NewCircuitBreaker(cfg.Resilience.CircuitBreaker),
			interceptors.NewRetryInterceptor(cfg.Resilience.Retry),
			interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
		),
	}, opts...)
	conn, err := grpc.NewClient(cfg.Addr, dialOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return grpcImpl.NewClient(conn), conn, nil
}

package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// requestIDMetadataKey is the metadata key carrying the caller's request id.
const requestIDMetadataKey = "x-request-id"

// RegistrationFunc registers a grpc service with the server.
type RegistrationFunc func(*grpc.Server)

// NewGRPCServer creates a gRPC server with tracing, request id and logging interceptors,
// a health service and optional reflection. The returned health server starts as SERVING
// for the overall server and should be switched to NOT_SERVING on shutdown.
func NewGRPCServer(logger *slog.Logger, enableReflection bool, registerFunc ...RegistrationFunc) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryRequestIDInterceptor,
			UnaryLoggingInterceptor(logger),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if enableReflection {
		reflection.Register(grpcServer)
	}

	for _, regFunc := range registerFunc {
		regFunc(grpcServer)
	}

	return grpcServer, healthServer
}

// UnaryRequestIDInterceptor puts the incoming x-request-id (or a new one) where middleware.GetReqID finds it.
func UnaryRequestIDInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	reqID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDMetadataKey); len(values) > 0 {
			reqID = values[0]
		}
	}
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return handler(context.WithValue(ctx, middleware.RequestIDKey, reqID), req)
}

// UnaryLoggingInterceptor logs every unary call with its status code and duration.
func UnaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "gRPC call completed",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
		)
		return resp, err
	}
}

// Package grpc provides the gRPC server and client of the inventory service.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	inverrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProductService is the part of the inventory the gRPC API exposes.
type ProductService interface {
	FindByID(ctx context.Context, id int64) (*service.ProductDto, error)
	FindByName(ctx context.Context, name string) (*service.ProductDto, error)
	ReduceQuantity(ctx context.Context, name string, amount int32) (service.Outcome, error)
	RestoreQuantity(ctx context.Context, name string, amount int32) (service.Outcome, error)
}

type Server struct {
	service ProductService
	logger  *slog.Logger
}

func NewServer(service ProductService, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

func (s *Server) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id", 1, math.MaxInt64)
	if err != nil {
		return nil, err
	}
	found, err := s.service.FindByID(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "FindByID", err)
	}
	return productStruct(found)
}

func (s *Server) FindByName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(req, "name")
	if err != nil {
		return nil, err
	}
	found, err := s.service.FindByName(ctx, name)
	if err != nil {
		return nil, s.toStatus(ctx, "FindByName", err)
	}
	return productStruct(found)
}

func (s *Server) ReduceQuantity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, quantity, err := stockRequest(req)
	if err != nil {
		return nil, err
	}
	outcome, err := s.service.ReduceQuantity(ctx, name, quantity)
	if err != nil {
		return nil, s.toStatus(ctx, "ReduceQuantity", err)
	}
	return outcomeStruct(outcome)
}

func (s *Server) RestoreQuantity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, quantity, err := stockRequest(req)
	if err != nil {
		return nil, err
	}
	outcome, err := s.service.RestoreQuantity(ctx, name, quantity)
	if err != nil {
		return nil, s.toStatus(ctx, "RestoreQuantity", err)
	}
	return outcomeStruct(outcome)
}

func (s *Server) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, inverrors.ErrProductNotFound):
		return status.Error(codes.NotFound, "product not found")
	case errors.Is(err, inverrors.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.ErrorContext(ctx, "service call failed", "op", op, "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}

func stockRequest(req *structpb.Struct) (string, int32, error) {
	name, err := stringField(req, "name")
	if err != nil {
		return "", 0, err
	}
	quantity, err := intField(req, "quantity", 0, math.MaxInt32)
	if err != nil {
		return "", 0, err
	}
	return name, int32(quantity), nil
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || str.StringValue == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a non-empty string", key)
	}
	return str.StringValue, nil
}

// intField reads a whole number in [lo, hi]. Struct numbers are doubles, so ids above 2^53 lose precision.
func intField(req *structpb.Struct, key string, lo, hi int64) (int64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	f := num.NumberValue
	if f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, f)
	}
	return int64(f), nil
}

func productStruct(p *service.ProductDto) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"id":       p.ID,
		"name":     p.Name,
		"quantity": p.Quantity,
		"price":    p.Price,
		"category": p.Category,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode product: %v", err))
	}
	return out, nil
}

func outcomeStruct(o service.Outcome) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{"outcome": o.String()})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode outcome: %v", err))
	}
	return out, nil
}

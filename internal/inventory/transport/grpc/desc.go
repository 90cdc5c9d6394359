package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "inventory.v1.InventoryService"

const (
	GetProductMethod      = "/" + ServiceName + "/GetProduct"
	FindByNameMethod      = "/" + ServiceName + "/FindByName"
	ReduceQuantityMethod  = "/" + ServiceName + "/ReduceQuantity"
	RestoreQuantityMethod = "/" + ServiceName + "/RestoreQuantity"
)

// InventoryServer is the server API for the inventory service.
// Requests and responses are google.protobuf.Struct messages.
type InventoryServer interface {
	GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FindByName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReduceQuantity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RestoreQuantity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// InventoryServiceDesc describes the inventory service for grpc.Server.RegisterService.
var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: unaryHandler(GetProductMethod, InventoryServer.GetProduct)},
		{MethodName: "FindByName", Handler: unaryHandler(FindByNameMethod, InventoryServer.FindByName)},
		{MethodName: "ReduceQuantity", Handler: unaryHandler(ReduceQuantityMethod, InventoryServer.ReduceQuantity)},
		{MethodName: "RestoreQuantity", Handler: unaryHandler(RestoreQuantityMethod, InventoryServer.RestoreQuantity)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.proto",
}

// RegisterInventoryServer registers srv with the gRPC registrar.
func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

type unaryMethod func(srv InventoryServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InventoryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

package grpc

import (
	"context"
	"fmt"

	"github.com/abgdnv/inventory/internal/inventory/service"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the inventory service over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) GetProduct(ctx context.Context, id int64, opts ...grpc.CallOption) (*service.ProductDto, error) {
	out, err := c.invoke(ctx, GetProductMethod, map[string]any{"id": id}, opts)
	if err != nil {
		return nil, err
	}
	return productFromStruct(out)
}

func (c *Client) FindByName(ctx context.Context, name string, opts ...grpc.CallOption) (*service.ProductDto, error) {
	out, err := c.invoke(ctx, FindByNameMethod, map[string]any{"name": name}, opts)
	if err != nil {
		return nil, err
	}
	return productFromStruct(out)
}

func (c *Client) ReduceQuantity(ctx context.Context, name string, quantity int32, opts ...grpc.CallOption) (service.Outcome, error) {
	out, err := c.invoke(ctx, ReduceQuantityMethod, map[string]any{"name": name, "quantity": quantity}, opts)
	if err != nil {
		return 0, err
	}
	return outcomeFromStruct(out)
}

func (c *Client) RestoreQuantity(ctx context.Context, name string, quantity int32, opts ...grpc.CallOption) (service.Outcome, error) {
	out, err := c.invoke(ctx, RestoreQuantityMethod, map[string]any{"name": name, "quantity": quantity}, opts)
	if err != nil {
		return 0, err
	}
	return outcomeFromStruct(out)
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]any, opts []grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func productFromStruct(s *structpb.Struct) (*service.ProductDto, error) {
	fields := s.GetFields()
	name, ok := fields["name"]
	if !ok {
		return nil, fmt.Errorf("malformed product response: %v", s)
	}
	return &service.ProductDto{
		ID:       int64(fields["id"].GetNumberValue()),
		Name:     name.GetStringValue(),
		Quantity: int32(fields["quantity"].GetNumberValue()),
		Price:    fields["price"].GetNumberValue(),
		Category: fields["category"].GetStringValue(),
	}, nil
}

func outcomeFromStruct(s *structpb.Struct) (service.Outcome, error) {
	name := s.GetFields()["outcome"].GetStringValue()
	outcome, ok := service.ParseOutcome(name)
	if !ok {
		return 0, fmt.Errorf("unknown outcome %q", name)
	}
	return outcome, nil
}

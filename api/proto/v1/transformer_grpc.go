// Package pb describes the remote transformer service. Messages are
// google.protobuf.Struct documents so that the option bag travels without a
// schema of its own; see transformer.proto for the field names.
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TransformerService_ServiceName              = "transpipe.v1.TransformerService"
	TransformerService_Transform_FullMethodName = "/transpipe.v1.TransformerService/Transform"
)

type TransformerServiceClient interface {
	Transform(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type transformerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTransformerServiceClient(cc grpc.ClientConnInterface) TransformerServiceClient {
	return &transformerServiceClient{cc}
}

func (c *transformerServiceClient) Transform(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TransformerService_Transform_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type TransformerServiceServer interface {
	Transform(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedTransformerServiceServer can be embedded for forward compatibility.
type UnimplementedTransformerServiceServer struct{}

func (UnimplementedTransformerServiceServer) Transform(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Transform not implemented")
}

func RegisterTransformerServiceServer(s grpc.ServiceRegistrar, srv TransformerServiceServer) {
	s.RegisterService(&TransformerService_ServiceDesc, srv)
}

func _TransformerService_Transform_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransformerServiceServer).Transform(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TransformerService_Transform_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransformerServiceServer).Transform(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var TransformerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: TransformerService_ServiceName,
	HandlerType: (*TransformerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Transform",
			Handler:    _TransformerService_Transform_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "v1/transformer.proto",
}

// Package rpc describes the omnipos.catalog.v1.SchemaService gRPC service.
// Messages are google.protobuf.Struct so the service needs no generated
// code; the payload shapes are documented on each method.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "omnipos.catalog.v1.SchemaService"

	CompileSchemaMethod      = "/" + ServiceName + "/CompileSchema"
	ValidateAttributesMethod = "/" + ServiceName + "/ValidateAttributes"
)

type SchemaServiceServer interface {
	// CompileSchema takes {"categoryId"} and returns the schema view
	// {"hidden", "fields", "descriptors"}.
	CompileSchema(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

	// ValidateAttributes takes {"categoryId", "values"} and returns
	// {"valid", "errors", "normalized"}.
	ValidateAttributes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSchemaServiceServer(s grpc.ServiceRegistrar, srv SchemaServiceServer) {
	s.RegisterService(&SchemaServiceDesc, srv)
}

var SchemaServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchemaServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CompileSchema",
			Handler:    compileSchemaHandler,
		},
		{
			MethodName: "ValidateAttributes",
			Handler:    validateAttributesHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/catalog/v1/schema.proto",
}

func compileSchemaHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchemaServiceServer).CompileSchema(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CompileSchemaMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SchemaServiceServer).CompileSchema(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func validateAttributesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchemaServiceServer).ValidateAttributes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ValidateAttributesMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SchemaServiceServer).ValidateAttributes(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type SchemaServiceClient interface {
	CompileSchema(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ValidateAttributes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type schemaServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSchemaServiceClient(cc grpc.ClientConnInterface) SchemaServiceClient {
	return &schemaServiceClient{cc: cc}
}

func (c *schemaServiceClient) CompileSchema(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CompileSchemaMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schemaServiceClient) ValidateAttributes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ValidateAttributesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

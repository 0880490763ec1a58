// Package pbitems declares the gRPC contract of the items service. Messages are protobuf
// well-known types, so the service is registered with a hand written descriptor instead of
// generated code:
//
//	CreateItem(google.protobuf.StringValue name) returns (google.protobuf.StringValue id)
//	GetItem(google.protobuf.StringValue id) returns (google.protobuf.Struct {id, name})
//	UpdateItem(google.protobuf.Struct {id, name}) returns (google.protobuf.Empty)
//	DeleteItem(google.protobuf.StringValue id) returns (google.protobuf.Empty)
package pbitems

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "pbitems.v1.ItemsService"

	FieldID   = "id"
	FieldName = "name"

	methodCreateItem = "CreateItem"
	methodGetItem    = "GetItem"
	methodUpdateItem = "UpdateItem"
	methodDeleteItem = "DeleteItem"
)

type ItemsServiceServer interface {
	CreateItem(ctx context.Context, name *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GetItem(ctx context.Context, id *wrapperspb.StringValue) (*structpb.Struct, error)
	UpdateItem(ctx context.Context, item *structpb.Struct) (*emptypb.Empty, error)
	DeleteItem(ctx context.Context, id *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// UnimplementedItemsServiceServer can be embedded for forward compatibility
type UnimplementedItemsServiceServer struct{}

func (UnimplementedItemsServiceServer) CreateItem(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateItem not implemented")
}

func (UnimplementedItemsServiceServer) GetItem(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetItem not implemented")
}

func (UnimplementedItemsServiceServer) UpdateItem(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateItem not implemented")
}

func (UnimplementedItemsServiceServer) DeleteItem(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteItem not implemented")
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler builds the grpc.MethodDesc handler for a method with request type Req
func unaryHandler[Req any, Resp any](
	method string,
	call func(srv ItemsServiceServer, ctx context.Context, req *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		err := dec(in)
		if err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(ItemsServiceServer), ctx, in) //nolint:forcetypeassert // guaranteed by HandlerType
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ItemsServiceServer), ctx, req.(*Req)) //nolint:forcetypeassert // guaranteed by HandlerType
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ItemsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ItemsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: methodCreateItem,
			Handler: unaryHandler(methodCreateItem, func(srv ItemsServiceServer, ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
				return srv.CreateItem(ctx, req)
			}),
		},
		{
			MethodName: methodGetItem,
			Handler: unaryHandler(methodGetItem, func(srv ItemsServiceServer, ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
				return srv.GetItem(ctx, req)
			}),
		},
		{
			MethodName: methodUpdateItem,
			Handler: unaryHandler(methodUpdateItem, func(srv ItemsServiceServer, ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
				return srv.UpdateItem(ctx, req)
			}),
		},
		{
			MethodName: methodDeleteItem,
			Handler: unaryHandler(methodDeleteItem, func(srv ItemsServiceServer, ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
				return srv.DeleteItem(ctx, req)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterItemsServiceServer(s grpc.ServiceRegistrar, srv ItemsServiceServer) {
	s.RegisterService(&ItemsServiceDesc, srv)
}

type ItemsServiceClient interface {
	CreateItem(ctx context.Context, name *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetItem(ctx context.Context, id *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateItem(ctx context.Context, item *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	DeleteItem(ctx context.Context, id *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type itemsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewItemsServiceClient(cc grpc.ClientConnInterface) ItemsServiceClient { //nolint:ireturn // same as generated clients
	return &itemsServiceClient{cc: cc}
}

func (isc *itemsServiceClient) CreateItem(ctx context.Context, name *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	err := isc.cc.Invoke(ctx, fullMethod(methodCreateItem), name, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (isc *itemsServiceClient) GetItem(ctx context.Context, id *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := isc.cc.Invoke(ctx, fullMethod(methodGetItem), id, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (isc *itemsServiceClient) UpdateItem(ctx context.Context, item *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	err := isc.cc.Invoke(ctx, fullMethod(methodUpdateItem), item, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (isc *itemsServiceClient) DeleteItem(ctx context.Context, id *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	err := isc.cc.Invoke(ctx, fullMethod(methodDeleteItem), id, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

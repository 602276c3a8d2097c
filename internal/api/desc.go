package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "imsg.v1.QueryService"

// Method names, usable as FullMethod(name).
const (
	MethodGetStatus                = "GetStatus"
	MethodGetConversation          = "GetConversation"
	MethodListConversations        = "ListConversations"
	MethodGetServiceBreakdown      = "GetServiceBreakdown"
	MethodCountEntities            = "CountEntities"
	MethodGetMessage               = "GetMessage"
	MethodGetAttachment            = "GetAttachment"
	MethodListConversationMessages = "ListConversationMessages"
	MethodGetLastMessage           = "GetLastMessage"
	MethodWatchMessages            = "WatchMessages"
)

// FullMethod returns the gRPC path of a method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// QueryServer is the server side of imsg.v1.QueryService. Requests and
// responses are google.protobuf.Struct values; field names are documented on
// each QueryService method.
type QueryServer interface {
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListConversations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetServiceBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountEntities(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAttachment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListConversationMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLastMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchMessages(*structpb.Struct, grpc.ServerStream) error
}

type unaryFunc func(QueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(QueryServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// WatchStreamDesc describes the server-streaming WatchMessages method.
var WatchStreamDesc = grpc.StreamDesc{
	StreamName:    MethodWatchMessages,
	ServerStreams: true,
	Handler: func(srv any, stream grpc.ServerStream) error {
		in := new(structpb.Struct)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return srv.(QueryServer).WatchMessages(in, stream)
	},
}

// ServiceDesc is registered in place of generated code.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetStatus, QueryServer.GetStatus),
		unary(MethodGetConversation, QueryServer.GetConversation),
		unary(MethodListConversations, QueryServer.ListConversations),
		unary(MethodGetServiceBreakdown, QueryServer.GetServiceBreakdown),
		unary(MethodCountEntities, QueryServer.CountEntities),
		unary(MethodGetMessage, QueryServer.GetMessage),
		unary(MethodGetAttachment, QueryServer.GetAttachment),
		unary(MethodListConversationMessages, QueryServer.ListConversationMessages),
		unary(MethodGetLastMessage, QueryServer.GetLastMessage),
	},
	Streams:  []grpc.StreamDesc{WatchStreamDesc},
	Metadata: "imsg/v1/query.proto",
}

// RegisterQueryServer registers srv on s.
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

package grpcadapter

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Every request and
// response message is a google.protobuf.Struct.
const ServiceName = "scaledown.gateway.v1.GatewayService"

const (
	MethodGenerateHypothesis        = "GenerateHypothesis"
	MethodSimulateCompression       = "SimulateCompression"
	MethodGenerateEducationalVideo  = "GenerateEducationalVideo"
	MethodCreateConversation        = "CreateConversation"
	MethodSetConversationLanguage   = "SetConversationLanguage"
	MethodSendConversationMessage   = "SendConversationMessage"
	MethodGetConversationTranscript = "GetConversationTranscript"
	MethodDeleteConversation        = "DeleteConversation"
	MethodListModels                = "ListModels"
)

// FullMethod returns the gRPC method path, e.g. "/scaledown.gateway.v1.GatewayService/ListModels".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type GatewayServer interface {
	GenerateHypothesis(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SimulateCompression(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateEducationalVideo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetConversationLanguage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendConversationMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetConversationTranscript(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListModels(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&gatewayServiceDesc, srv)
}

type unaryCall func(GatewayServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GatewayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GatewayServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var gatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGenerateHypothesis, Handler: unaryHandler(MethodGenerateHypothesis, GatewayServer.GenerateHypothesis)},
		{MethodName: MethodSimulateCompression, Handler: unaryHandler(MethodSimulateCompression, GatewayServer.SimulateCompression)},
		{MethodName: MethodGenerateEducationalVideo, Handler: unaryHandler(MethodGenerateEducationalVideo, GatewayServer.GenerateEducationalVideo)},
		{MethodName: MethodCreateConversation, Handler: unaryHandler(MethodCreateConversation, GatewayServer.CreateConversation)},
		{MethodName: MethodSetConversationLanguage, Handler: unaryHandler(MethodSetConversationLanguage, GatewayServer.SetConversationLanguage)},
		{MethodName: MethodSendConversationMessage, Handler: unaryHandler(MethodSendConversationMessage, GatewayServer.SendConversationMessage)},
		{MethodName: MethodGetConversationTranscript, Handler: unaryHandler(MethodGetConversationTranscript, GatewayServer.GetConversationTranscript)},
		{MethodName: MethodDeleteConversation, Handler: unaryHandler(MethodDeleteConversation, GatewayServer.DeleteConversation)},
		{MethodName: MethodListModels, Handler: unaryHandler(MethodListModels, GatewayServer.ListModels)},
	},
	Streams:     []grpc.StreamDesc{},
}

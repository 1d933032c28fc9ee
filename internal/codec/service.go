package codec

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region descriptor

const (
	serviceName          = "imitate.v1.FeedbackService"
	statsMethod          = "/" + serviceName + "/Stats"
	addObservationMethod = "/" + serviceName + "/AddObservation"
)

// FeedbackServiceClient is the client side of the feedback service.
type FeedbackServiceClient interface {
	Stats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AddObservation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type feedbackServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFeedbackServiceClient binds the service to a connection.
func NewFeedbackServiceClient(cc grpc.ClientConnInterface) FeedbackServiceClient {
	return &feedbackServiceClient{cc: cc}
}

func (c *feedbackServiceClient) Stats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *feedbackServiceClient) AddObservation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, addObservationMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// FeedbackServiceServer is the server side of the feedback service.
type FeedbackServiceServer interface {
	Stats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	AddObservation(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterFeedbackServiceServer attaches srv to a gRPC server.
func RegisterFeedbackServiceServer(s grpc.ServiceRegistrar, srv FeedbackServiceServer) {
	s.RegisterService(&feedbackServiceDesc, srv)
}

func statsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FeedbackServiceServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FeedbackServiceServer).Stats(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func addObservationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FeedbackServiceServer).AddObservation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: addObservationMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FeedbackServiceServer).AddObservation(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var feedbackServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FeedbackServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Stats", Handler: statsHandler},
		{MethodName: "AddObservation", Handler: addObservationHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "imitate/v1/feedback.proto",
}

// #endregion descriptor

package gatewayv1

import (
	"context"

	"google.golang.org/grpc"
)

// Full method names for the gateway services.
const (
	GatewayService_SubmitRequest_FullMethodName = "/gateway.GatewayService/SubmitRequest"
	HealthService_Check_FullMethodName          = "/gateway.HealthService/Check"
)

// GatewayServiceServer is the server API for the GatewayService.
type GatewayServiceServer interface {
	// SubmitRequest admits one canonical request into the buffer.
	SubmitRequest(context.Context, *InternalRequest) (*SubmitRequestResponse, error)
}

// HealthServiceServer is the server API for the HealthService.
type HealthServiceServer interface {
	// Check is a liveness probe.
	Check(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

// RegisterGatewayServiceServer registers the gateway service implementation.
func RegisterGatewayServiceServer(s grpc.ServiceRegistrar, srv GatewayServiceServer) {
	s.RegisterService(&GatewayService_ServiceDesc, srv)
}

// RegisterHealthServiceServer registers the health service implementation.
func RegisterHealthServiceServer(s grpc.ServiceRegistrar, srv HealthServiceServer) {
	s.RegisterService(&HealthService_ServiceDesc, srv)
}

func _GatewayService_SubmitRequest_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InternalRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GatewayServiceServer).SubmitRequest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GatewayService_SubmitRequest_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GatewayServiceServer).SubmitRequest(ctx, req.(*InternalRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HealthService_Check_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HealthServiceServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HealthService_Check_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HealthServiceServer).Check(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// GatewayService_ServiceDesc is the grpc.ServiceDesc for GatewayService.
var GatewayService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "gateway.GatewayService",
	HandlerType: (*GatewayServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitRequest", Handler: _GatewayService_SubmitRequest_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/gateway.proto",
}

// HealthService_ServiceDesc is the grpc.ServiceDesc for HealthService.
var HealthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "gateway.HealthService",
	HandlerType: (*HealthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: _HealthService_Check_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/gateway.proto",
}

// GatewayServiceClient is the client API for the GatewayService.
type GatewayServiceClient interface {
	SubmitRequest(ctx context.Context, in *InternalRequest, opts ...grpc.CallOption) (*SubmitRequestResponse, error)
}

// HealthServiceClient is the client API for the HealthService.
type HealthServiceClient interface {
	Check(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
}

type gatewayServiceClient struct{ cc grpc.ClientConnInterface }

// NewGatewayServiceClient creates a GatewayService client on the connection.
func NewGatewayServiceClient(cc grpc.ClientConnInterface) GatewayServiceClient {
	return &gatewayServiceClient{cc: cc}
}

func (c *gatewayServiceClient) SubmitRequest(ctx context.Context, in *InternalRequest, opts ...grpc.CallOption) (*SubmitRequestResponse, error) {
	out := new(SubmitRequestResponse)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, GatewayService_SubmitRequest_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type healthServiceClient struct{ cc grpc.ClientConnInterface }

// NewHealthServiceClient creates a HealthService client on the connection.
func NewHealthServiceClient(cc grpc.ClientConnInterface) HealthServiceClient {
	return &healthServiceClient{cc: cc}
}

func (c *healthServiceClient) Check(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, HealthService_Check_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

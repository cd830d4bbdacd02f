package grpcserver

import (
	"context"
	"net"

	"google.golang.org/grpc"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
	"github.com/Lotargo/Q-Bridge/internal/admission"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// Server owns the gRPC server instance and the admission pipeline.
type Server struct {
	adm    *admission.Admitter
	grpc   *grpc.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New constructs a gRPC server and registers the gateway services.
// The hand-maintained wire codec is installed server-wide so the
// services decode without generated protobuf bindings.
func New(adm *admission.Admitter, logger logpkg.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(gatewayv1.Codec{})}, opts...)
	s := &Server{adm: adm, grpc: grpc.NewServer(opts...), logger: logger}
	gatewayv1.RegisterGatewayServiceServer(s.grpc, &gatewaySvc{adm: adm, logger: logger})
	gatewayv1.RegisterHealthServiceServer(s.grpc, &healthSvc{})
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("grpc server listening", logpkg.Str("addr", addr))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

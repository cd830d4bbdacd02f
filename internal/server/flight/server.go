package flightserver

import (
	"context"
	"net"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc"

	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// Server hosts the Arrow Flight transfer endpoint on its own gRPC
// server. It runs separately from the gateway server so the gateway's
// hand-maintained codec never touches Flight's generated messages.
type Server struct {
	grpc   *grpc.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New constructs the Flight server.
func New(logger logpkg.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	s := &Server{grpc: grpc.NewServer(opts...), logger: logger}
	flight.RegisterFlightServiceServer(s.grpc, &transferSvc{logger: logger})
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("flight server listening", logpkg.Str("addr", addr))
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

// transferSvc is the result-transfer endpoint. Result production is not
// wired up yet; DoGet acknowledges the ticket and ends the stream so
// clients can already speak the protocol.
type transferSvc struct {
	flight.BaseFlightServer
	logger logpkg.Logger
}

func (t *transferSvc) DoGet(tkt *flight.Ticket, fs flight.FlightService_DoGetServer) error {
	t.logger.Info("flight do_get", logpkg.Int("ticket_bytes", len(tkt.GetTicket())))
	return nil
}

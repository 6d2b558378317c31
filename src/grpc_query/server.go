package grpc_query

import (
	"fmt"
	"net"

	"quote-charts/src/logger"

	"google.golang.org/grpc"
)

// Server hosts the query service
type Server struct {
	Addr   string
	Logger *logger.Logger
	grpc   *grpc.Server
}

// NewServer registers service on a new grpc.Server listening on host:port
func NewServer(host string, port int, service QueryServer, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}
	gs := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(log)))
	RegisterQueryServer(gs, service)

	return &Server{
		Addr:   fmt.Sprintf("%s:%d", host, port),
		Logger: log,
		grpc:   gs,
	}
}

// -----------------------------------------------------------------------------

// Start listens on Addr and serves until Stop
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on %s: %w", s.Addr, err)
	}
	return s.Serve(lis)
}

// -----------------------------------------------------------------------------

// Serve serves on an existing listener
func (s *Server) Serve(lis net.Listener) error {
	s.Logger.Info("Starting gRPC Query Server on %s", lis.Addr())
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

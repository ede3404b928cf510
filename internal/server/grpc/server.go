// Package grpc exposes the gRPC surface: the standard health service and
// the authenticated Session service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Sessions is what the gRPC layer needs from the account service.
type Sessions interface {
	Authenticate(ctx context.Context, rawToken string) (*services.AuthContext, error)
	Logout(ctx context.Context, ac *services.AuthContext) error
}

type GRPCServer struct {
	address  string
	sessions Sessions
	logger   logging.Logger
	health   *health.Server
}

func NewGRPCServer(address string, l logging.Logger, sessions Sessions) *GRPCServer {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		health:   health.NewServer(),
	}
}

// newServer builds the grpc.Server with interceptors and services
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.authInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	srv.RegisterService(&sessionServiceDesc, s)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(SessionServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

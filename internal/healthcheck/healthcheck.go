// Package healthcheck serves the standard gRPC health protocol next to each
// service's HTTP API.
package healthcheck

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	service string
	logger  *zap.Logger
}

// New creates a health server reporting SERVING for both the overall status and
// the named service.
func New(service string, logger *zap.Logger) *Server {
	s := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{grpc: s, health: hs, service: service, logger: logger}
}

// ListenAndServe blocks serving on addr until Stop is called.
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("health server started", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve health: %w", err)
	}
	return nil
}

// SetServing flips the reported status of the overall server and the service.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}

// Stop marks the server NOT_SERVING and drains open health streams.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

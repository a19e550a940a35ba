package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Server implements grpc.health.v1.Health over a ReadinessChecker.
// Only the overall service ("") is known.
type Server struct {
	healthpb.UnimplementedHealthServer
	checker ReadinessChecker
}

// NewServer returns a Health server backed by checker.
func NewServer(checker ReadinessChecker) *Server {
	return &Server{checker: checker}
}

// Check reports SERVING when the checker passes, NOT_SERVING otherwise.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if req.GetService() != "" {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	if err := s.checker.Check(ctx); err != nil {
		log.Warn().Err(err).Msg("health: grpc check not serving")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

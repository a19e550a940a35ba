package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "direct-messaging/backend/internal/health/handler"
)

// GRPCDeps holds the gRPC service dependencies.
type GRPCDeps struct {
	// Health backs grpc.health.v1.Health. Required.
	Health healthhandler.ReadinessChecker
}

// RegisterServices registers the gRPC services with s.
//
//   - grpc.health.v1.Health → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps GRPCDeps) {
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.Health))
}

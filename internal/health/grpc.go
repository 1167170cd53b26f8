package health

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer serves grpc.health.v1.Health and reflection. The serving status
// follows the result of periodic pings.
type GRPCServer struct {
	server  *grpc.Server
	health  *health.Server
	pinger  Pinger
	service string
	logger  *slog.Logger
}

func NewGRPCServer(pinger Pinger, service string, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	server := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	return &GRPCServer{
		server:  server,
		health:  hs,
		pinger:  pinger,
		service: service,
		logger:  logger,
	}
}

// Refresh pings once and publishes the result for "" and the named service.
func (s *GRPCServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := check(ctx, s.pinger); err != nil {
		s.logger.WarnContext(ctx, "health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
	return status
}

// Monitor refreshes the status every interval until ctx is done.
func (s *GRPCServer) Monitor(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.DebugContext(ctx, "grpc request", "method", info.FullMethod, "duration", time.Since(start), "error", err)
		return resp, err
	}
}

package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	"github.com/wekeepgrowing/adcampaign-billing/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	pinger   Pinger
	listener net.Listener
	stop     chan struct{}
}

func NewServer(cfg *config.Config, log *zap.Logger, pinger Pinger) *Server {
	s := &Server{
		config: cfg,
		logger: log,
		health: health.NewServer(),
		pinger: pinger,
		stop:   make(chan struct{}),
	}

	s.server = grpc.NewServer(
		grpc.UnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)),
		grpc.StreamInterceptor(logger.NewGrpcStreamServerInterceptor(log)),
	)
	healthpb.RegisterHealthServer(s.server, s.health)
	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.GRPC.Host, s.config.Server.GRPC.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.updateHealth()
	go s.watchHealth(15 * time.Second)

	s.logger.Info("Starting gRPC server", zap.String("address", addr))

	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
	return nil
}

func (s *Server) watchHealth(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.updateHealth()
		}
	}
}

// updateHealth marks the billing service NOT_SERVING while the store is unreachable
func (s *Server) updateHealth() {
	status := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn("Store health check failed", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.config.Service.Name, status)
}

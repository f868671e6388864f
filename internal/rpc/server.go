// Package rpc runs the gRPC side of the daemon: the standard health service,
// whose serving status follows summary cache connectivity.
package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// SummaryServiceName is the health service name reported for the summary
// pipeline. The empty name reports overall server health.
const SummaryServiceName = "propsum.Summary"

// Pinger reports whether the summary cache is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig holds configuration for the gRPC server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., "localhost:10029").
	ListenAddr string

	// ServerPingTime is the duration after which the server pings the
	// client.
	ServerPingTime time.Duration

	// ServerPingTimeout is the duration the server waits for ping ack.
	ServerPingTimeout time.Duration

	// ClientPingMinWait is the minimum time between client pings.
	ClientPingMinWait time.Duration

	// PollInterval is how often cache connectivity is re-checked.
	PollInterval time.Duration

	// PingTimeout bounds a single cache check.
	PingTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:        "localhost:10029",
		ServerPingTime:    5 * time.Minute,
		ServerPingTimeout: 1 * time.Minute,
		ClientPingMinWait: 5 * time.Second,
		PollInterval:      15 * time.Second,
		PingTimeout:       5 * time.Second,
	}
}

// Server serves grpc.health.v1.Health.
type Server struct {
	cfg    ServerConfig
	pinger Pinger
	log    *slog.Logger

	health     *health.Server
	grpcServer *grpc.Server
	listener   net.Listener

	started bool
	mu      sync.Mutex
	wg      sync.WaitGroup
	quit    chan struct{}
}

// NewServer creates a gRPC health server watching pinger.
func NewServer(cfg ServerConfig, pinger Pinger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultServerConfig().PollInterval
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = DefaultServerConfig().PingTimeout
	}

	return &Server{
		cfg:    cfg,
		pinger: pinger,
		log:    log.With("component", "rpc"),
		health: health.NewServer(),
		quit:   make(chan struct{}),
	}
}

// Start begins listening and serving, and starts the health poller.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("server already started")
	}

	lis, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w",
			s.cfg.ListenAddr, err)
	}
	s.listener = lis

	s.grpcServer = grpc.NewServer(s.buildServerOptions()...)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	// Report the current state before accepting the first check.
	s.checkCache()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()

		s.log.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := s.grpcServer.Serve(lis); err != nil {
			select {
			case <-s.quit:
			default:
				s.log.Error("gRPC server error", "error", err)
			}
		}
	}()
	go s.pollHealth()

	s.started = true

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	close(s.quit)
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	s.wg.Wait()

	s.started = false
	s.log.Info("gRPC server stopped")

	return nil
}

// pollHealth re-checks the cache until Stop.
func (s *Server) pollHealth() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkCache()

		case <-s.quit:
			return
		}
	}
}

// checkCache pings the cache and updates the serving status. The summary
// pipeline keeps working without its cache, so an unreachable cache only
// marks the summary service NOT_SERVING and leaves overall health alone.
func (s *Server) checkCache() {
	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.PingTimeout,
	)
	defer cancel()

	servingStatus := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			s.log.Warn("Summary cache unreachable", "error", err)
			servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(SummaryServiceName, servingStatus)
}

func (s *Server) buildServerOptions() []grpc.ServerOption {
	serverKeepalive := keepalive.ServerParameters{
		Time:    s.cfg.ServerPingTime,
		Timeout: s.cfg.ServerPingTimeout,
	}

	clientKeepalive := keepalive.EnforcementPolicy{
		MinTime:             s.cfg.ClientPingMinWait,
		PermitWithoutStream: true,
	}

	return []grpc.ServerOption{
		grpc.KeepaliveParams(serverKeepalive),
		grpc.KeepaliveEnforcementPolicy(clientKeepalive),
		grpc.ChainUnaryInterceptor(
			s.loggingUnaryInterceptor,
			s.shutdownUnaryInterceptor,
		),
	}
}

// loggingUnaryInterceptor logs all unary RPC calls.
func (s *Server) loggingUnaryInterceptor(ctx context.Context, req any,
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	start := time.Now()
	resp, err := handler(ctx, req)

	if err != nil {
		s.log.Warn("RPC failed",
			"method", info.FullMethod,
			"duration", time.Since(start),
			"error", err,
		)
	} else {
		s.log.Debug("RPC completed",
			"method", info.FullMethod,
			"duration", time.Since(start),
		)
	}

	return resp, err
}

// shutdownUnaryInterceptor rejects calls once Stop has begun.
func (s *Server) shutdownUnaryInterceptor(ctx context.Context, req any,
	_ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	select {
	case <-s.quit:
		return nil, status.Error(codes.Unavailable,
			"server is shutting down")
	default:
	}

	return handler(ctx, req)
}

package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/0xsj/overwatch-pkg/grpc/middleware"
	"github.com/0xsj/overwatch-pkg/log"
)

// ServiceName is the health-checked service. It reports SERVING while the bot is on IRC.
const ServiceName = "nickserv.v1.NickServ"

// ServerConfig holds configuration for the operational gRPC server.
type ServerConfig struct {
	Host              string
	Port              int
	EnableReflection  bool
	EnableHealthCheck bool
}

// Address returns the server address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the server configuration. Port 0 picks a free port.
func (c ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Server wraps the gRPC server.
type Server struct {
	config       ServerConfig
	grpcServer   *grpc.Server
	healthServer *health.Server
	logger       log.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new gRPC server with health and, optionally, reflection.
func NewServer(cfg ServerConfig, logger log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	// Recovery wraps everything; logging runs after the request ID is set.
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.UnaryServerRecoveryWithLogger(logger),
			middleware.UnaryServerRequestID(),
			middleware.UnaryServerLogging(logger),
		),
		grpc.ChainStreamInterceptor(
			middleware.StreamServerRecoveryWithLogger(logger),
			middleware.StreamServerRequestID(),
			middleware.StreamServerLogging(logger),
		),
	)

	s := &Server{
		config:     cfg,
		grpcServer: grpcServer,
		logger:     logger,
	}

	if cfg.EnableHealthCheck {
		s.healthServer = health.NewServer()
		s.healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpc_health_v1.RegisterHealthServer(grpcServer, s.healthServer)
	}

	if cfg.EnableReflection {
		reflection.Register(grpcServer)
	}

	return s, nil
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	addr := s.config.Address()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

// Serve accepts connections on the bound listener until Stop.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("server is not listening")
	}

	s.logger.Info("gRPC server starting",
		log.String("address", listener.Addr().String()),
		log.Any("reflection", s.config.EnableReflection),
		log.Any("health_check", s.config.EnableHealthCheck),
	)
	return s.grpcServer.Serve(listener)
}

// Start binds and serves.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop gracefully stops the gRPC server, forcing it if ctx ends first.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("gRPC server stopping")

	if s.healthServer != nil {
		s.healthServer.Shutdown()
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("gRPC server force stopping")
		s.grpcServer.Stop()
		return ctx.Err()
	case <-stopped:
		s.logger.Info("gRPC server stopped gracefully")
		return nil
	}
}

// SetServing reports whether the bot can currently answer commands.
func (s *Server) SetServing(serving bool) {
	if s.healthServer == nil {
		return
	}
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.healthServer.SetServingStatus(ServiceName, status)
}

// Address returns the server's listening address.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GRPCServer returns the underlying grpc.Server.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

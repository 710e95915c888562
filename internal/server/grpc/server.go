package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/joelverhagen/json-append-log/internal/runtime"
	"github.com/joelverhagen/json-append-log/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	health *health.Server
	logger log.Logger
	lis    net.Listener

	// probeEvery is how often the runtime health is re-checked while serving.
	probeEvery time.Duration
}

// New constructs a gRPC server and registers the health service.
func New(rt *runtime.Runtime, logger log.Logger, opts ...grpc.ServerOption) *Server {
	s := &Server{
		rt:         rt,
		grpc:       grpc.NewServer(opts...),
		health:     health.NewServer(),
		logger:     log.OrDefault(logger, "grpc"),
		probeEvery: 5 * time.Second,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.refreshHealth(ctx)
	go s.watchHealth(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.health.Shutdown()
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

package grpcserver

import (
	"context"
	"time"

	"github.com/joelverhagen/json-append-log/pkg/log"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// BlobServiceName is the health service name reported for the blob API.
const BlobServiceName = "jsonlog.blob"

// refreshHealth copies the runtime health into the gRPC health server, both
// for the overall server ("") and for the blob service.
func (s *Server) refreshHealth(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.rt.CheckHealth(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("runtime unhealthy", log.Err(err))
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(BlobServiceName, status)
}

func (s *Server) watchHealth(ctx context.Context) {
	t := time.NewTicker(s.probeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.refreshHealth(ctx)
		}
	}
}

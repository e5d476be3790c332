package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the named service reported next to the overall ("") status.
const ServiceName = "account-console"

// probeTimeout bounds one database ping.
const probeTimeout = 2 * time.Second

// Pinger is used for readiness (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server implements grpc.health.v1.Health. Status is SERVING while the database answers pings.
// Check probes on demand; Run keeps the status current for Watch clients.
type Server struct {
	*health.Server
	pinger Pinger
}

// NewServer returns a health server. With a nil pinger the service is always SERVING.
func NewServer(pinger Pinger) *Server {
	s := &Server{Server: health.NewServer(), pinger: pinger}
	s.set(healthpb.HealthCheckResponse_SERVING)
	return s
}

// Check probes the database, then reports the status of the requested service.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	_ = s.Probe(ctx)
	return s.Server.Check(ctx, req)
}

// Probe pings the database and updates the status. Returns the ping error.
func (s *Server) Probe(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	err := s.pinger.PingContext(ctx)
	if err != nil {
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	s.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Run probes every interval until ctx ends, then marks the server NOT_SERVING for draining clients.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		case <-ticker.C:
			_ = s.Probe(ctx)
		}
	}
}

func (s *Server) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.SetServingStatus("", status)
	s.SetServingStatus(ServiceName, status)
}

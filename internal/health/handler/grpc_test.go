package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	mu      sync.Mutex
	pingErr error
	calls   int
}

func (m *mockPinger) PingContext(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.pingErr
}

func (m *mockPinger) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func check(t *testing.T, srv *Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.GetStatus()
}

func TestCheck_NilPinger(t *testing.T) {
	srv := NewServer(nil)
	if got := check(t, srv, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", got)
	}
}

func TestCheck_PingerSuccess(t *testing.T) {
	p := &mockPinger{}
	srv := NewServer(p)
	for _, service := range []string{"", ServiceName} {
		if got := check(t, srv, service); got != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("status(%q) = %v, want SERVING", service, got)
		}
	}
	if p.calls != 2 {
		t.Errorf("pings = %d, want 2", p.calls)
	}
}

func TestCheck_PingerFailure(t *testing.T) {
	p := &mockPinger{pingErr: errors.New("connection refused")}
	srv := NewServer(p)
	if got := check(t, srv, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", got)
	}

	p.setErr(nil)
	if got := check(t, srv, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status after recovery = %v, want SERVING", got)
	}
}

func TestCheck_UnknownService(t *testing.T) {
	srv := NewServer(&mockPinger{})
	_, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
}

func TestProbe_ReturnsPingError(t *testing.T) {
	want := errors.New("db down")
	srv := NewServer(&mockPinger{pingErr: want})
	if err := srv.Probe(context.Background()); !errors.Is(err, want) {
		t.Errorf("Probe = %v, want %v", err, want)
	}
}

func TestRun_UpdatesAndShutsDown(t *testing.T) {
	p := &mockPinger{}
	srv := NewServer(p)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	p.setErr(errors.New("db down"))
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, _ := srv.Server.Check(context.Background(), &healthpb.HealthCheckRequest{})
		if resp.GetStatus() == healthpb.HealthCheckResponse_NOT_SERVING {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Run did not mark the server NOT_SERVING")
		}
		time.Sleep(5 * time.Millisecond)
	}

	p.setErr(nil)
	cancel()
	<-done
	resp, _ := srv.Server.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after shutdown = %v, want NOT_SERVING", resp.GetStatus())
	}
}

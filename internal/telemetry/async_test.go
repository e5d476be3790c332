package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*Event
	emitErr error
	delay   time.Duration
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *Event) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Event(nil), m.events...)
}

func waitForEvents(t *testing.T, m *mockEventEmitter, n int) []*Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := m.getEvents(); len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	return m.getEvents()
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	// Should not panic
	EmitAsync(nil, context.Background(), &Event{EventType: EventLoginStarted})
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)

	time.Sleep(10 * time.Millisecond)
	if events := emitter.getEvents(); len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), &Event{
		EventType: EventLoginCompleted,
		AccountID: 7,
		JobID:     "job-1",
		Status:    "completed",
	})

	events := waitForEvents(t, emitter, 1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].AccountID != 7 || events[0].JobID != "job-1" {
		t.Errorf("event = %+v", events[0])
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be filled in")
	}
}

func TestEmitAsync_IgnoresCallerCancellation(t *testing.T) {
	emitter := &mockEventEmitter{delay: 20 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, &Event{EventType: EventLoginStarted})

	if events := waitForEvents(t, emitter, 1); len(events) != 1 {
		t.Errorf("expected 1 event after caller cancellation, got %d", len(events))
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: errors.New("collector down")}
	EmitAsync(emitter, context.Background(), &Event{EventType: EventLoginFailed})
	if events := waitForEvents(t, emitter, 1); len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), &Event{EventType: EventLoginStarted, AccountID: int64(id)})
		}(i)
	}
	wg.Wait()

	if events := waitForEvents(t, emitter, 10); len(events) != 10 {
		t.Errorf("expected 10 events, got %d", len(events))
	}
}

func TestMulti(t *testing.T) {
	a := &mockEventEmitter{}
	b := &mockEventEmitter{emitErr: errors.New("b failed")}
	c := &mockEventEmitter{}

	err := Multi(a, nil, b, c).Emit(context.Background(), &Event{EventType: EventLoginWaiting})
	if err == nil || err.Error() != "b failed" {
		t.Errorf("err = %v, want b failed", err)
	}
	for name, m := range map[string]*mockEventEmitter{"a": a, "b": b, "c": c} {
		if len(m.getEvents()) != 1 {
			t.Errorf("emitter %s got %d events, want 1", name, len(m.getEvents()))
		}
	}
	if err := Multi().Emit(context.Background(), &Event{}); err != nil {
		t.Errorf("empty Multi: %v", err)
	}
}

func TestEvent_JSON(t *testing.T) {
	e := &Event{
		EventType: EventLoginFailed,
		AccountID: 3,
		JobID:     "j",
		Status:    "failed",
		Error:     "timeout",
		CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	want := `{"event_type":"login_failed","account_id":3,"job_id":"j","status":"failed","error":"timeout","created_at":"2024-05-01T08:00:00Z"}`
	if got := string(e.JSON()); got != want {
		t.Errorf("JSON = %s\nwant %s", got, want)
	}
}

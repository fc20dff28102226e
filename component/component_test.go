package component

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	calls    *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	if m.calls != nil {
		*m.calls = append(*m.calls, "start:"+m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	if m.calls != nil {
		*m.calls = append(*m.calls, "stop:"+m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) Health { return m.health }

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "storage"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "storage"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	c := &mockComponent{name: "warehouse"}
	_ = r.Register(c)

	if got := r.Get("warehouse"); got != c {
		t.Errorf("expected registered component, got %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Errorf("expected nil for unknown component, got %v", got)
	}
	if len(r.All()) != 1 {
		t.Errorf("expected 1 component, got %d", len(r.All()))
	}
}

func TestStartStopOrder(t *testing.T) {
	var calls []string
	r := NewRegistry()
	for _, name := range []string{"variables", "storage", "dv360"} {
		_ = r.Register(&mockComponent{name: name, calls: &calls})
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{
		"start:variables", "start:storage", "start:dv360",
		"stop:dv360", "stop:storage", "stop:variables",
	}
	if !slices.Equal(calls, want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
}

func TestStartAllErrorStopsStartedOnly(t *testing.T) {
	var calls []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", calls: &calls})
	_ = r.Register(&mockComponent{name: "b", calls: &calls, startErr: errors.New("no credentials")})
	_ = r.Register(&mockComponent{name: "c", calls: &calls})

	ctx := context.Background()
	err := r.StartAll(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to start b") {
		t.Fatalf("expected start error for b, got %v", err)
	}
	calls = nil
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if !slices.Equal(calls, []string{"stop:a"}) {
		t.Fatalf("expected only a to stop, got %v", calls)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errors.New("a")})
	_ = r.Register(&mockComponent{name: "b", stopErr: errors.New("b")})

	ctx := context.Background()
	_ = r.StartAll(ctx)
	err := r.StopAll(ctx)
	if err == nil || !strings.Contains(err.Error(), "stop a") || !strings.Contains(err.Error(), "stop b") {
		t.Fatalf("expected both stop errors, got %v", err)
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "b", health: Health{Name: "b", Status: StatusDegraded}})

	hs := r.HealthAll(context.Background())
	if len(hs) != 2 || hs[1].Status != StatusDegraded {
		t.Fatalf("unexpected health %v", hs)
	}
	if !Healthy(hs) {
		t.Error("degraded components should not make the set unhealthy")
	}
	hs = append(hs, Health{Name: "c", Status: StatusUnhealthy})
	if Healthy(hs) {
		t.Error("expected unhealthy set")
	}
}

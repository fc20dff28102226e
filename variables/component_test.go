package variables

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/spindle/component"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/redis"
)

func TestComponent_Backends(t *testing.T) {
	mini := miniredis.RunT(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Backend: BackendMemory, Values: map[string]string{"cloud_project_id": "proj"}}},
		{"redis", Config{Backend: BackendRedis, Redis: redis.Config{Addr: mini.Addr()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := NewComponent(tt.cfg, logger.NewDefault("test"))
			if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
				t.Errorf("expected unhealthy before start, got %s", h.Status)
			}
			if err := c.Start(ctx); err != nil {
				t.Fatalf("start failed: %v", err)
			}
			t.Cleanup(func() { _ = c.Stop(ctx) })

			if h := c.Health(ctx); h.Status != component.StatusHealthy || h.Name != "variables" {
				t.Errorf("expected healthy variables, got %+v", h)
			}
			if err := c.Store().Set(ctx, "cloud_project_id", "proj"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := c.Lookup("cloud_project_id")(ctx)
			if err != nil || got != "proj" {
				t.Errorf("expected proj, got %q (%v)", got, err)
			}
		})
	}
}

func TestComponent_LookupMissing(t *testing.T) {
	ctx := context.Background()
	c := NewComponent(Config{}, logger.NewDefault("test"))
	if _, err := c.Lookup("gcs_bucket")(ctx); err == nil {
		t.Error("expected error before start")
	}
	_ = c.Start(ctx)
	_, err := c.Lookup("gcs_bucket")(ctx)
	if errors.CodeOf(err) != errors.ErrCodeVariableMissing {
		t.Errorf("expected VARIABLE_MISSING, got %v", err)
	}
}

func TestComponent_InvalidBackend(t *testing.T) {
	c := NewComponent(Config{Backend: "consul"}, logger.NewDefault("test"))
	if err := c.Start(context.Background()); err == nil {
		t.Error("expected unsupported backend error")
	}
}

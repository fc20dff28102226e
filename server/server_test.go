package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/spindle/component"
	"github.com/kbukum/spindle/dag"
	apperrors "github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "error"}, "test", io.Discard)
}

func testDAG(context.Context) (*dag.DAG, error) {
	d := dag.New("spindle_v3", "0 22 * * *", dag.DefaultArgs{Owner: "spindle", Retries: 3})
	if err := d.Graph.Add(dag.NewMarker("start"), dag.NewMarker("end")); err != nil {
		return nil, err
	}
	if err := d.Graph.AddEdge("start", "end"); err != nil {
		return nil, err
	}
	return d, nil
}

func newTestServer(cfg Config, checker func(context.Context) []component.Health, provider DAGProvider) *Server {
	cfg.ApplyDefaults()
	s := New(cfg, testLogger())
	s.RegisterDefaultEndpoints("spindle", "spindle_v3", checker)
	s.RegisterDAG(provider)
	return s
}

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		status     component.HealthStatus
		wantCode   int
		wantStatus string
	}{
		{"healthy", component.StatusHealthy, http.StatusOK, "healthy"},
		{"degraded", component.StatusDegraded, http.StatusOK, "degraded"},
		{"unhealthy", component.StatusUnhealthy, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := func(context.Context) []component.Health {
				return []component.Health{{Name: "warehouse", Status: tt.status}}
			}
			rr := serve(newTestServer(Config{}, checker, testDAG), "/health")
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("expected status %s, got %v", tt.wantStatus, body["status"])
			}
		})
	}
}

func TestReadinessEndpoint(t *testing.T) {
	checker := func(context.Context) []component.Health {
		return []component.Health{{Name: "storage", Status: component.StatusUnhealthy}}
	}
	rr := serve(newTestServer(Config{}, checker, testDAG), "/readiness")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
}

func TestInfoEndpoint(t *testing.T) {
	rr := serve(newTestServer(Config{}, nil, testDAG), "/info")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["dag_id"] != "spindle_v3" {
		t.Errorf("expected dag_id spindle_v3, got %v", body["dag_id"])
	}
}

func TestDAGEndpointJSON(t *testing.T) {
	rr := serve(newTestServer(Config{}, nil, testDAG), "/dag")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Data dag.Pipeline `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Data.Name != "spindle_v3" {
		t.Errorf("expected spindle_v3, got %q", body.Data.Name)
	}
	if len(body.Data.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(body.Data.Nodes))
	}
}

func TestDAGEndpointYAML(t *testing.T) {
	rr := serve(newTestServer(Config{}, nil, testDAG), "/dag?format=yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/yaml") {
		t.Errorf("expected yaml content type, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "name: spindle_v3") {
		t.Errorf("expected pipeline name in body, got:\n%s", rr.Body.String())
	}
}

func TestDAGEndpointErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		provider DAGProvider
		wantCode int
		wantErr  apperrors.ErrorCode
	}{
		{
			name:     "unsupported format",
			path:     "/dag?format=dot",
			provider: testDAG,
			wantCode: http.StatusBadRequest,
			wantErr:  apperrors.ErrCodeInvalidInput,
		},
		{
			name: "missing variable",
			path: "/dag",
			provider: func(context.Context) (*dag.DAG, error) {
				return nil, apperrors.VariableMissing("partner_ids")
			},
			wantCode: http.StatusInternalServerError,
			wantErr:  apperrors.ErrCodeVariableMissing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(newTestServer(Config{}, nil, tt.provider), tt.path)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error.Code != tt.wantErr {
				t.Errorf("expected %s, got %s", tt.wantErr, body.Error.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(Config{RequestsPerSecond: 0.001, Burst: 1}, nil, testDAG)
	if rr := serve(s, "/liveness"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := serve(s, "/liveness"); rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rr.Code)
	}
}

func TestComponentLifecycle(t *testing.T) {
	s := newTestServer(Config{Host: "127.0.0.1", Port: 0}, nil, testDAG)
	// ApplyDefaults replaced port 0; bind an ephemeral port instead.
	s.httpServer.Addr = "127.0.0.1:0"
	c := NewComponent(s)

	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() { _ = c.Stop(context.Background()) }()

	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}

	resp, err := http.Get("http://" + s.Addr() + "/liveness")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id on the response")
	}
}

func TestRoutes(t *testing.T) {
	c := NewComponent(newTestServer(Config{}, nil, testDAG))
	routes := c.Routes()
	if len(routes) != 6 {
		t.Fatalf("expected 6 routes, got %d", len(routes))
	}
	if routes[0].Path != "/dag" || routes[0].Handler != "server.DAGHandler" {
		t.Errorf("expected /dag -> server.DAGHandler first, got %s -> %s", routes[0].Path, routes[0].Handler)
	}
}

func TestHandlerName(t *testing.T) {
	tests := []struct {
		full string
		want string
	}{
		{"github.com/kbukum/spindle/server/endpoint.Health.func1", "endpoint.Health"},
		{"github.com/kbukum/spindle/server.DAGHandler.func1", "server.DAGHandler"},
		{"github.com/kbukum/spindle/server.(*Server).RegisterDAG.DAGHandler.func1", "server.DAGHandler"},
		{"github.com/kbukum/spindle/server.(*Server).RegisterDefaultEndpoints.Info.func1.1", "server.Info"},
		{"github.com/kbukum/spindle/server.(*Server).handle-fm", "server.handle"},
		{"main.health", "main.health"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := handlerName(tt.full); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"port too high", Config{Port: 70000}, true},
		{"negative timeout", Config{ReadTimeout: -1}, true},
		{"negative rate", Config{RequestsPerSecond: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

package dag

import (
	"context"
	"strings"
	"testing"
	"time"
)

// --- test helpers ---

func noop(name string) Node {
	return Func(name, func(context.Context, *State) (any, error) { return name, nil })
}

func mustGraph(t *testing.T, names []string, edges ...Edge) *Graph {
	t.Helper()
	g := NewGraph()
	for _, n := range names {
		if err := g.Add(noop(n)); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			t.Fatalf("edge %v: %v", e, err)
		}
	}
	return g
}

// --- State tests ---

func TestState_GetSetKeys(t *testing.T) {
	s := NewState()
	s.Set("b", 2)
	s.Set("a", 1)
	v, ok := s.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected 1, got %v (ok=%v)", v, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected missing key")
	}
	if keys := s.Keys(); strings.Join(keys, ",") != "a,b" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
}

func TestPort_ReadWrite(t *testing.T) {
	s := NewState()
	port := NewPort[int64]("create_report", "query_id")
	if port.Key != "create_report.query_id" {
		t.Fatalf("unexpected key %q", port.Key)
	}
	Write(s, port, 42)

	val, err := Read(s, port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 42 {
		t.Fatalf("expected 42, got %d", val)
	}
}

func TestPort_Errors(t *testing.T) {
	s := NewState()
	if _, err := Read(s, Port[int]{Key: "missing"}); err == nil {
		t.Fatal("expected error for missing key")
	}
	s.Set("key", "not-an-int")
	if _, err := Read(s, Port[int]{Key: "key"}); err == nil {
		t.Fatal("expected error for type mismatch")
	}
}

// --- Graph tests ---

func TestGraph_AddDuplicate(t *testing.T) {
	g := NewGraph()
	if err := g.Add(noop("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Add(noop("a")); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := g.Add(noop("")); err == nil {
		t.Fatal("expected empty name error")
	}
}

func TestGraph_AddEdgeErrors(t *testing.T) {
	g := mustGraph(t, []string{"a"})
	if err := g.AddEdge("a", "unknown"); err == nil {
		t.Fatal("expected error for unknown node")
	}
	if err := g.AddEdge("a", "a"); err == nil {
		t.Fatal("expected error for self edge")
	}
}

func TestGraph_DuplicateEdgeIgnored(t *testing.T) {
	g := mustGraph(t, []string{"a", "b"}, Edge{"a", "b"}, Edge{"a", "b"})
	if len(g.Edges()) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges()))
	}
}

func TestGraph_ChainAndFanOut(t *testing.T) {
	g := mustGraph(t, []string{"start", "x", "y", "end", "after"})
	if err := g.FanOut("start", []string{"x", "y"}, "end"); err != nil {
		t.Fatalf("fan out: %v", err)
	}
	if err := g.Chain("end", "after"); err != nil {
		t.Fatalf("chain: %v", err)
	}

	if got := g.Downstream("start"); strings.Join(got, ",") != "x,y" {
		t.Errorf("expected start -> x,y, got %v", got)
	}
	if got := g.Upstream("end"); strings.Join(got, ",") != "x,y" {
		t.Errorf("expected x,y -> end, got %v", got)
	}
	if got := g.Upstream("after"); strings.Join(got, ",") != "end" {
		t.Errorf("expected end -> after, got %v", got)
	}
}

func TestGraph_FanOutEmpty(t *testing.T) {
	g := mustGraph(t, []string{"start", "end"})
	if err := g.FanOut("start", nil, "end"); err != nil {
		t.Fatalf("fan out: %v", err)
	}
	if got := g.Upstream("end"); len(got) != 1 || got[0] != "start" {
		t.Fatalf("expected start -> end, got %v", got)
	}
}

// --- BuildLevels tests ---

func TestBuildLevels_Linear(t *testing.T) {
	g := mustGraph(t, []string{"a", "b", "c"}, Edge{"a", "b"}, Edge{"b", "c"})
	levels, err := BuildLevels(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	if levels[0][0] != "a" || levels[1][0] != "b" || levels[2][0] != "c" {
		t.Fatalf("unexpected level order: %v", levels)
	}
}

func TestBuildLevels_InsertionOrder(t *testing.T) {
	names := []string{"start", "upload_3", "upload_1", "upload_2", "end"}
	g := mustGraph(t, names)
	if err := g.FanOut("start", []string{"upload_2", "upload_1", "upload_3"}, "end"); err != nil {
		t.Fatalf("fan out: %v", err)
	}

	for i := 0; i < 20; i++ {
		levels, err := BuildLevels(g)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.Join(levels[1], ","); got != "upload_3,upload_1,upload_2" {
			t.Fatalf("expected insertion order, got %s", got)
		}
	}
}

func TestBuildLevels_Diamond(t *testing.T) {
	g := mustGraph(t, []string{"a", "b", "c", "d"},
		Edge{"a", "b"}, Edge{"a", "c"}, Edge{"b", "d"}, Edge{"c", "d"})
	levels, err := BuildLevels(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 3 || len(levels[1]) != 2 || levels[2][0] != "d" {
		t.Fatalf("unexpected levels: %v", levels)
	}
}

func TestBuildLevels_CycleDetection(t *testing.T) {
	g := mustGraph(t, []string{"a", "b"}, Edge{"a", "b"}, Edge{"b", "a"})
	if _, err := BuildLevels(g); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestBuildLevels_NoEdges(t *testing.T) {
	g := mustGraph(t, []string{"a", "b"})
	levels, err := BuildLevels(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 1 || len(levels[0]) != 2 {
		t.Fatalf("expected a single level of 2, got %v", levels)
	}
}

// --- DAG tests ---

func TestDAG_Validate(t *testing.T) {
	args := DefaultArgs{Owner: "spindle", Retries: 3, RetryDelay: 300 * time.Second}
	tests := []struct {
		name    string
		build   func() *DAG
		wantErr string
	}{
		{"valid", func() *DAG {
			d := New("spindle_v3", "0 22 * * *", args)
			_ = d.Graph.Add(noop("a"))
			return d
		}, ""},
		{"missing id", func() *DAG { return New("", "0 22 * * *", args) }, "id is required"},
		{"bad schedule", func() *DAG {
			d := New("x", "daily", args)
			_ = d.Graph.Add(noop("a"))
			return d
		}, "cron"},
		{"empty graph", func() *DAG { return New("x", "", args) }, "no nodes"},
		{"cycle", func() *DAG {
			d := New("x", "", args)
			_ = d.Graph.Add(noop("a"), noop("b"))
			_ = d.Graph.Chain("a", "b", "a")
			return d
		}, "cycle"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build().Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDefaultArgs_RetryPolicy(t *testing.T) {
	p := DefaultArgs{Retries: 3, RetryDelay: 300 * time.Second}.RetryPolicy()
	if p.MaxAttempts != 4 {
		t.Errorf("expected 4 attempts, got %d", p.MaxAttempts)
	}
	if p.Delay != 300*time.Second || p.Multiplier != 1 {
		t.Errorf("expected fixed 300s delay, got %s x%v", p.Delay, p.Multiplier)
	}
}

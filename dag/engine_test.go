package dag

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/spindle/resilience"
)

func failing(name string, err error) Node {
	return Func(name, func(context.Context, *State) (any, error) { return nil, err })
}

func fastRetry(retries int) *resilience.RetryConfig {
	p := resilience.FixedDelay(retries, time.Millisecond)
	return &p
}

func TestEngine_BatchExecution(t *testing.T) {
	outPort := Port[string]{Key: "output"}
	g := NewGraph()
	_ = g.Add(
		Func("a", func(_ context.Context, s *State) (any, error) {
			s.Set("a_done", true)
			return "a-result", nil
		}),
		Func("b", func(_ context.Context, s *State) (any, error) {
			if _, ok := s.Get("a_done"); !ok {
				return nil, fmt.Errorf("a should have run first")
			}
			Write(s, outPort, "final")
			return "b-result", nil
		}),
	)
	_ = g.AddEdge("a", "b")

	state := NewState()
	result, err := (&Engine{}).ExecuteBatch(context.Background(), g, state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		if result.NodeResults[name].Status != StatusCompleted {
			t.Fatalf("expected %s completed, got %s", name, result.NodeResults[name].Status)
		}
	}
	if out, _ := Read(state, outPort); out != "final" {
		t.Fatalf("expected 'final', got %q", out)
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
	if result.Failed() {
		t.Error("expected run to succeed")
	}
}

func TestEngine_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	g := NewGraph()
	_ = g.Add(Func("run_report", func(context.Context, *State) (any, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("503")
		}
		return nil, nil
	}))

	result, err := (&Engine{Retry: fastRetry(3)}).ExecuteBatch(context.Background(), g, NewState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nr := result.NodeResults["run_report"]
	if nr.Status != StatusCompleted || nr.Attempts != 3 {
		t.Fatalf("expected completed after 3 attempts, got %s after %d", nr.Status, nr.Attempts)
	}
}

func TestEngine_RetriesExhausted(t *testing.T) {
	nodeErr := errors.New("node failed")
	g := NewGraph()
	_ = g.Add(failing("a", nodeErr))

	result, err := (&Engine{Retry: fastRetry(3)}).ExecuteBatch(context.Background(), g, NewState())
	if err != nil {
		t.Fatalf("unexpected top-level error: %v", err)
	}
	nr := result.NodeResults["a"]
	if nr.Status != StatusFailed || nr.Attempts != 4 {
		t.Fatalf("expected failed after 4 attempts, got %s after %d", nr.Status, nr.Attempts)
	}
	if !errors.Is(nr.Error, nodeErr) {
		t.Fatalf("expected node error, got %v", nr.Error)
	}
}

func TestEngine_RunUsesDefaultArgs(t *testing.T) {
	var calls atomic.Int32
	d := New("test", "", DefaultArgs{Retries: 2, RetryDelay: time.Millisecond})
	_ = d.Graph.Add(Func("a", func(context.Context, *State) (any, error) {
		calls.Add(1)
		return nil, errors.New("always")
	}))

	if _, err := (&Engine{}).Run(context.Background(), d, NewState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts from default args, got %d", calls.Load())
	}
}

func TestEngine_AllSuccessPropagatesUpstreamFailed(t *testing.T) {
	var ran atomic.Bool
	g := NewGraph()
	_ = g.Add(
		failing("a", errors.New("boom")),
		noop("b"),
		Func("c", func(context.Context, *State) (any, error) { ran.Store(true); return nil, nil }),
	)
	_ = g.Chain("a", "b", "c")

	result, _ := (&Engine{}).ExecuteBatch(context.Background(), g, NewState())
	if result.NodeResults["b"].Status != StatusUpstreamFailed {
		t.Errorf("expected b upstream_failed, got %s", result.NodeResults["b"].Status)
	}
	if result.NodeResults["c"].Status != StatusUpstreamFailed {
		t.Errorf("expected c upstream_failed, got %s", result.NodeResults["c"].Status)
	}
	if ran.Load() {
		t.Error("c must not run")
	}
	if got := result.FailedNodes(); len(got) != 3 {
		t.Errorf("expected 3 failed nodes, got %v", got)
	}
}

func TestEngine_AllDoneRunsAfterFailure(t *testing.T) {
	g := NewGraph()
	end := NewMarker("end_sdf")
	end.Rule = AllDone
	_ = g.Add(noop("start_sdf"), failing("upload_1", errors.New("quota")), noop("upload_2"), end, noop("after"))
	_ = g.FanOut("start_sdf", []string{"upload_1", "upload_2"}, "end_sdf")
	_ = g.Chain("end_sdf", "after")

	result, err := (&Engine{}).ExecuteBatch(context.Background(), g, NewState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NodeResults["end_sdf"].Status != StatusCompleted {
		t.Fatalf("expected end_sdf completed, got %s", result.NodeResults["end_sdf"].Status)
	}
	if result.NodeResults["after"].Status != StatusCompleted {
		t.Fatalf("expected downstream of end_sdf to run, got %s", result.NodeResults["after"].Status)
	}
	if !result.Failed() {
		t.Fatal("expected the run to be failed when an upload failed")
	}
	if got := result.FailedNodes(); len(got) != 1 || got[0] != "upload_1" {
		t.Fatalf("expected [upload_1], got %v", got)
	}
}

func TestEngine_AllDoneWrappedRule(t *testing.T) {
	g := NewGraph()
	_ = g.Add(failing("a", errors.New("x")), WithLogging(WithTriggerRule(noop("b"), AllDone), nil))
	_ = g.AddEdge("a", "b")

	if RuleOf(mustNode(t, g, "b")) != AllDone {
		t.Fatal("expected rule to be visible through wrappers")
	}
}

func mustNode(t *testing.T, g *Graph, name string) Node {
	t.Helper()
	n, ok := g.Node(name)
	if !ok {
		t.Fatalf("node %s not found", name)
	}
	return n
}

func TestEngine_SkippedPropagates(t *testing.T) {
	g := NewGraph()
	_ = g.Add(noop("a"), noop("b"))
	_ = g.AddEdge("a", "b")

	r := &run{graph: g, result: &Result{NodeResults: map[string]NodeResult{"a": {Name: "a", Status: StatusSkipped}}}}
	b, _ := g.Node("b")
	if status, _ := r.resolve(b); status != StatusSkipped {
		t.Fatalf("expected skipped, got %q", status)
	}
}

func TestEngine_MaxParallel(t *testing.T) {
	var running, maxRunning atomic.Int32
	makeNode := func(name string) Node {
		return Func(name, func(context.Context, *State) (any, error) {
			cur := running.Add(1)
			for {
				old := maxRunning.Load()
				if cur <= old || maxRunning.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return name, nil
		})
	}

	g := NewGraph()
	_ = g.Add(makeNode("a"), makeNode("b"), makeNode("c"), makeNode("d"))

	if _, err := (&Engine{MaxParallel: 2}).ExecuteBatch(context.Background(), g, NewState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxRunning.Load() > 2 {
		t.Fatalf("expected max 2 concurrent, got %d", maxRunning.Load())
	}
}

func TestEngine_SequentialStartsInInsertionOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) Node {
		return Func(name, func(context.Context, *State) (any, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		})
	}

	g := NewGraph()
	names := []string{"upload_10", "upload_2", "upload_1", "upload_3"}
	for _, name := range names {
		_ = g.Add(record(name))
	}

	if _, err := (&Engine{MaxParallel: 1}).ExecuteBatch(context.Background(), g, NewState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, names) {
		t.Fatalf("expected %v, got %v", names, order)
	}
}

func TestEngine_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGraph()
	_ = g.Add(noop("a"))

	result, err := (&Engine{}).ExecuteBatch(ctx, g, NewState())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.NodeResults) != 0 {
		t.Fatalf("expected no node results, got %v", result.NodeResults)
	}
}

func TestEngine_InvalidGraph(t *testing.T) {
	g := mustGraph(t, []string{"a", "b"}, Edge{"a", "b"}, Edge{"b", "a"})
	if _, err := (&Engine{}).ExecuteBatch(context.Background(), g, NewState()); err == nil {
		t.Fatal("expected cycle error")
	}
}

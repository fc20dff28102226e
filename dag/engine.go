package dag

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/observability"
	"github.com/kbukum/spindle/resilience"
)

// Engine executes a graph in dependency order.
type Engine struct {
	// MaxParallel limits concurrent nodes per level (0 = unlimited).
	MaxParallel int
	// Retry overrides the DAG's default-args retry policy when set.
	Retry *resilience.RetryConfig
	// Metrics records task and run outcomes when set.
	Metrics *observability.Metrics
	// Logger defaults to the "dag" component logger.
	Logger *logger.Logger
}

// Run executes every node of d once and returns the per-node outcomes.
// A failed node does not abort the run: its dependents are resolved by
// their trigger rules. The returned error is non-nil only when the graph is
// invalid or ctx is done before all levels ran.
func (e *Engine) Run(ctx context.Context, d *DAG, state *State) (*Result, error) {
	policy := d.DefaultArgs.RetryPolicy()
	if e.Retry != nil {
		policy = *e.Retry
	}
	return e.execute(ctx, d.ID, d.Graph, state, policy)
}

// ExecuteBatch runs a bare graph with a single attempt per node.
func (e *Engine) ExecuteBatch(ctx context.Context, g *Graph, state *State) (*Result, error) {
	policy := resilience.FixedDelay(0, 0)
	if e.Retry != nil {
		policy = *e.Retry
	}
	return e.execute(ctx, "", g, state, policy)
}

func (e *Engine) execute(ctx context.Context, dagID string, g *Graph, state *State, policy resilience.RetryConfig) (*Result, error) {
	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}

	result := &Result{
		DAGID:       dagID,
		RunID:       uuid.NewString(),
		StartedAt:   time.Now(),
		NodeResults: make(map[string]NodeResult, g.Len()),
	}
	ctx = logger.ContextWithRunID(ctx, result.RunID)
	log := e.log().WithContext(ctx).WithFields(logger.Fields(logger.FieldDAG, dagID))
	log.Info("dag run started", logger.Fields("tasks", g.Len(), "levels", len(levels)))

	bulkhead := resilience.NewBulkhead(e.MaxParallel)
	r := &run{engine: e, dagID: dagID, graph: g, state: state, policy: policy, result: result, log: log}

	var runErr error
	for _, level := range levels {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		r.executeLevel(ctx, level, bulkhead)
	}

	result.Duration = time.Since(result.StartedAt)
	if e.Metrics != nil {
		e.Metrics.RecordRun(ctx, dagID, result.Failed(), result.Duration)
	}

	fields := logger.Fields("duration", result.Duration.String(), "failed_tasks", result.FailedNodes())
	switch {
	case runErr != nil:
		log.WithError(runErr).Error("dag run aborted", fields)
	case result.Failed():
		log.Error("dag run failed", fields)
	default:
		log.Info("dag run succeeded", fields)
	}
	return result, runErr
}

func (e *Engine) log() *logger.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logger.Get("dag")
}

type run struct {
	engine *Engine
	dagID  string
	graph  *Graph
	state  *State
	policy resilience.RetryConfig
	log    *logger.Logger

	mu     sync.Mutex
	result *Result
}

func (r *run) executeLevel(ctx context.Context, names []string, bulkhead *resilience.Bulkhead) {
	var wg sync.WaitGroup
	for _, name := range names {
		node, _ := r.graph.Node(name)

		if status, failed := r.resolve(node); status != "" {
			r.record(ctx, NodeResult{Name: name, Status: status})
			continue
		} else if len(failed) > 0 {
			r.log.Warn("task proceeding despite failed upstream tasks", logger.Fields(
				logger.FieldTask, name,
				"trigger_rule", string(RuleOf(node)),
				"failed_upstream", strings.Join(failed, ","),
			))
		}

		// Slots are taken in level order so nodes start in insertion order.
		release, err := bulkhead.Acquire(ctx)
		if err != nil {
			r.record(ctx, NodeResult{Name: name, Status: StatusFailed, Error: err})
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer release()
			r.record(ctx, r.executeNode(ctx, node))
		}()
	}
	wg.Wait()
}

// resolve applies the node's trigger rule. It returns a non-empty status
// when the node must not run, and the upstream nodes that did not complete.
func (r *run) resolve(node Node) (Status, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed, skipped []string
	for _, up := range r.graph.Upstream(node.Name()) {
		switch r.result.NodeResults[up].Status {
		case StatusCompleted:
		case StatusSkipped:
			skipped = append(skipped, up)
		default:
			failed = append(failed, up)
		}
	}

	if RuleOf(node) == AllDone {
		return "", failed
	}
	switch {
	case len(failed) > 0:
		return StatusUpstreamFailed, failed
	case len(skipped) > 0:
		return StatusSkipped, nil
	}
	return "", nil
}

func (r *run) executeNode(ctx context.Context, node Node) NodeResult {
	name := node.Name()
	ctx = logger.ContextWithTaskID(ctx, name)
	log := r.log.WithTask(name)

	policy := r.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("task attempt failed, retrying", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"retry_in", delay.String(),
		))
	}

	start := time.Now()
	var output any
	attempts, err := resilience.Do(ctx, policy, func(ctx context.Context) error {
		var runErr error
		output, runErr = node.Run(ctx, r.state)
		return runErr
	})

	nr := NodeResult{Name: name, Attempts: attempts, Duration: time.Since(start)}
	if err != nil {
		nr.Status = StatusFailed
		nr.Error = err
		log.Error("task failed", logger.Fields(logger.FieldAttempt, attempts, logger.FieldError, err.Error()))
	} else {
		nr.Status = StatusCompleted
		nr.Output = output
		log.Info("task completed", logger.Fields(logger.FieldAttempt, attempts, logger.FieldDuration, nr.Duration.Milliseconds()))
	}
	return nr
}

func (r *run) record(ctx context.Context, nr NodeResult) {
	r.mu.Lock()
	r.result.NodeResults[nr.Name] = nr
	r.result.Order = append(r.result.Order, nr.Name)
	r.mu.Unlock()

	if nr.Status == StatusUpstreamFailed || nr.Status == StatusSkipped {
		r.log.Warn("task not run", logger.Fields(logger.FieldTask, nr.Name, logger.FieldStatus, string(nr.Status)))
	}
	if m := r.engine.Metrics; m != nil {
		m.RecordTask(ctx, r.dagID, nr.Name, string(nr.Status), nr.Attempts, nr.Duration)
	}
}

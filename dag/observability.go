package dag

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/observability"
)

// WithTracing wraps a Node so every attempt runs in a span named
// "{dagID}.{nodeName}".
func WithTracing(node Node, dagID string) Node {
	return &tracingNode{inner: node, dagID: dagID}
}

type tracingNode struct {
	inner Node
	dagID string
}

func (n *tracingNode) Name() string { return n.inner.Name() }
func (n *tracingNode) Unwrap() Node { return n.inner }

func (n *tracingNode) Run(ctx context.Context, state *State) (any, error) {
	ctx, span := observability.StartSpan(ctx, n.dagID+"."+n.inner.Name())
	defer span.End()
	span.SetAttributes(
		attribute.String(observability.AttrDAG, n.dagID),
		attribute.String(observability.AttrTask, n.inner.Name()),
	)

	result, err := n.inner.Run(ctx, state)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return result, err
}

// WithMetrics wraps a Node so every attempt is counted by outcome. Final
// task outcomes are recorded by the Engine.
func WithMetrics(node Node, metrics *observability.Metrics, dagID string) Node {
	return &metricsNode{inner: node, metrics: metrics, dagID: dagID}
}

type metricsNode struct {
	inner   Node
	metrics *observability.Metrics
	dagID   string
}

func (n *metricsNode) Name() string { return n.inner.Name() }
func (n *metricsNode) Unwrap() Node { return n.inner }

func (n *metricsNode) Run(ctx context.Context, state *State) (any, error) {
	result, err := n.inner.Run(ctx, state)
	n.metrics.RecordAttempt(ctx, n.dagID, n.inner.Name(), err)
	return result, err
}

// WithLogging wraps a Node with per-attempt debug logging. A nil log uses
// the "dag" component logger.
func WithLogging(node Node, log *logger.Logger) Node {
	if log == nil {
		log = logger.Get("dag")
	}
	return &loggingNode{inner: node, log: log}
}

type loggingNode struct {
	inner Node
	log   *logger.Logger
}

func (n *loggingNode) Name() string { return n.inner.Name() }
func (n *loggingNode) Unwrap() Node { return n.inner }

func (n *loggingNode) Run(ctx context.Context, state *State) (any, error) {
	log := n.log.WithContext(ctx)
	log.Debug("task attempt started")

	start := time.Now()
	result, err := n.inner.Run(ctx, state)
	fields := logger.DurationFields(n.inner.Name(), time.Since(start))
	if err != nil {
		fields[logger.FieldError] = err.Error()
		log.Debug("task attempt failed", fields)
	} else {
		log.Debug("task attempt finished", fields)
	}
	return result, err
}

// Instrument applies the logging, tracing and metrics wrappers to every node
// of d in place. A nil metrics skips the metrics wrapper.
func Instrument(d *DAG, log *logger.Logger, metrics *observability.Metrics) {
	for _, name := range d.Graph.order {
		n := d.Graph.nodes[name]
		n = WithLogging(n, log)
		n = WithTracing(n, d.ID)
		if metrics != nil {
			n = WithMetrics(n, metrics, d.ID)
		}
		d.Graph.nodes[name] = n
	}
}

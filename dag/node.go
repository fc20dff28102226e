package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/resilience"
)

// Node is the execution unit in a DAG.
type Node interface {
	Name() string
	Run(ctx context.Context, state *State) (any, error)
}

// TriggerRule decides whether a node runs given its upstream outcomes.
type TriggerRule string

const (
	// AllSuccess runs the node only when every upstream node completed.
	AllSuccess TriggerRule = "all_success"
	// AllDone runs the node once every upstream node finished in any state.
	AllDone TriggerRule = "all_done"
)

// ParseTriggerRule validates a configured rule. Empty means AllSuccess.
func ParseTriggerRule(s string) (TriggerRule, error) {
	switch TriggerRule(s) {
	case "", AllSuccess:
		return AllSuccess, nil
	case AllDone:
		return AllDone, nil
	default:
		return "", errors.InvalidInput("trigger_rule", fmt.Sprintf("unsupported trigger rule %q", s))
	}
}

// TriggerRuler is implemented by nodes that do not use AllSuccess.
type TriggerRuler interface {
	TriggerRule() TriggerRule
}

// Wrapper is implemented by decorating nodes so the engine can reach the
// node they wrap.
type Wrapper interface {
	Unwrap() Node
}

// RuleOf returns the trigger rule of a node, looking through wrappers.
func RuleOf(n Node) TriggerRule {
	for n != nil {
		if r, ok := n.(TriggerRuler); ok {
			return r.TriggerRule()
		}
		w, ok := n.(Wrapper)
		if !ok {
			break
		}
		n = w.Unwrap()
	}
	return AllSuccess
}

// Kind reports the node kind used in graph descriptions.
func Kind(n Node) string {
	for n != nil {
		if k, ok := n.(interface{ Kind() string }); ok {
			return k.Kind()
		}
		w, ok := n.(Wrapper)
		if !ok {
			break
		}
		n = w.Unwrap()
	}
	return "task"
}

// WithTriggerRule overrides the trigger rule of a node.
func WithTriggerRule(n Node, rule TriggerRule) Node {
	return &ruleNode{Node: n, rule: rule}
}

type ruleNode struct {
	Node
	rule TriggerRule
}

func (n *ruleNode) TriggerRule() TriggerRule { return n.rule }
func (n *ruleNode) Unwrap() Node             { return n.Node }

// Func adapts a function into a Node.
func Func(name string, fn func(ctx context.Context, state *State) (any, error)) Node {
	return &funcNode{name: name, fn: fn}
}

type funcNode struct {
	name string
	fn   func(ctx context.Context, state *State) (any, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Run(ctx context.Context, state *State) (any, error) {
	return n.fn(ctx, state)
}

// Marker is a node that does nothing. It groups dependencies, e.g. the start
// and end of a fan-out.
type Marker struct {
	ID   string
	Rule TriggerRule
}

// NewMarker creates a marker node with the default trigger rule.
func NewMarker(id string) *Marker {
	return &Marker{ID: id, Rule: AllSuccess}
}

func (m *Marker) Name() string { return m.ID }
func (m *Marker) Kind() string { return "marker" }

func (m *Marker) TriggerRule() TriggerRule {
	if m.Rule == "" {
		return AllSuccess
	}
	return m.Rule
}

func (m *Marker) Run(context.Context, *State) (any, error) { return nil, nil }

// Sensor waits for a condition by calling Poke every Interval until it
// reports done or Timeout elapses.
type Sensor struct {
	ID       string
	Interval time.Duration
	Timeout  time.Duration
	Poke     func(ctx context.Context, state *State) (bool, error)
}

func (s *Sensor) Name() string { return s.ID }
func (s *Sensor) Kind() string { return "sensor" }

func (s *Sensor) Run(ctx context.Context, state *State) (any, error) {
	log := logger.WithContext(ctx)
	pokes := 0
	err := resilience.Poll(ctx, s.Interval, s.Timeout, func(ctx context.Context) (bool, error) {
		pokes++
		done, err := s.Poke(ctx, state)
		if err == nil && !done {
			log.Debug("condition not met", logger.Fields("pokes", pokes))
		}
		return done, err
	})
	if stderrors.Is(err, resilience.ErrPollTimeout) {
		return nil, errors.SensorTimeout(s.ID, s.Timeout)
	}
	return pokes, err
}

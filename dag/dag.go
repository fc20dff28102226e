package dag

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/spindle/resilience"
)

// DefaultArgs are applied to every node of a DAG.
type DefaultArgs struct {
	Owner          string        `yaml:"owner" json:"owner" mapstructure:"owner"`
	Retries        int           `yaml:"retries" json:"retries" mapstructure:"retries"`
	RetryDelay     time.Duration `yaml:"retry_delay" json:"retry_delay" mapstructure:"retry_delay"`
	EmailOnFailure bool          `yaml:"email_on_failure" json:"email_on_failure" mapstructure:"email_on_failure"`
	EmailOnRetry   bool          `yaml:"email_on_retry" json:"email_on_retry" mapstructure:"email_on_retry"`
}

// RetryPolicy returns the fixed-delay policy described by the args.
func (a DefaultArgs) RetryPolicy() resilience.RetryConfig {
	return resilience.FixedDelay(max(a.Retries, 0), a.RetryDelay)
}

// DAG is a graph plus the metadata an external scheduler needs to run it.
type DAG struct {
	ID          string
	Schedule    string
	Catchup     bool
	DefaultView string
	DefaultArgs DefaultArgs
	Graph       *Graph
}

// New creates a DAG with an empty graph.
func New(id, schedule string, args DefaultArgs) *DAG {
	return &DAG{
		ID:          id,
		Schedule:    schedule,
		DefaultView: "graph",
		DefaultArgs: args,
		Graph:       NewGraph(),
	}
}

// Validate checks the metadata and that the graph is acyclic.
func (d *DAG) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("dag: id is required")
	}
	if d.Schedule != "" && len(strings.Fields(d.Schedule)) != 5 {
		return fmt.Errorf("dag %s: schedule %q is not a five-field cron expression", d.ID, d.Schedule)
	}
	if d.DefaultArgs.Retries < 0 {
		return fmt.Errorf("dag %s: retries must be >= 0", d.ID)
	}
	if d.Graph == nil || d.Graph.Len() == 0 {
		return fmt.Errorf("dag %s: graph has no nodes", d.ID)
	}
	if _, err := BuildLevels(d.Graph); err != nil {
		return fmt.Errorf("dag %s: %w", d.ID, err)
	}
	return nil
}

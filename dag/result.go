package dag

import (
	"time"
)

// Status is the final state of a node in one run.
type Status string

const (
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusSkipped        Status = "skipped"
	StatusUpstreamFailed Status = "upstream_failed"
)

// Result holds the outcome of a graph execution.
type Result struct {
	DAGID       string
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	NodeResults map[string]NodeResult
	// Order lists node names in the order they finished.
	Order []string
}

// NodeResult holds the outcome of a single node execution.
type NodeResult struct {
	Name     string
	Status   Status
	Attempts int
	Duration time.Duration
	Output   any
	Error    error
}

// Failed reports whether any node failed or could not run because an
// upstream node failed. A node running under AllDone does not hide the
// failures that preceded it.
func (r *Result) Failed() bool {
	return len(r.FailedNodes()) > 0
}

// FailedNodes returns the failed and upstream_failed nodes in finish order.
func (r *Result) FailedNodes() []string {
	var failed []string
	for _, name := range r.Order {
		switch r.NodeResults[name].Status {
		case StatusFailed, StatusUpstreamFailed:
			failed = append(failed, name)
		}
	}
	return failed
}

// Counts returns the number of nodes per status.
func (r *Result) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, nr := range r.NodeResults {
		counts[nr.Status]++
	}
	return counts
}

// Package dag is the workflow engine spindle's pipeline runs on.
//
// A DAG couples scheduling metadata with a Graph of named nodes and
// precedence edges. The Engine runs the graph once, level by level in
// insertion order, with bounded parallelism inside a level and a uniform
// retry policy around every node.
//
// Each node has a trigger rule deciding whether it runs once its upstream
// nodes have finished:
//   - all_success (default): run only if every upstream node completed,
//     otherwise finish as upstream_failed
//   - all_done: run once every upstream node finished in any state
//
// Nodes exchange values through State using typed ports:
//
//	queryID := dag.Port[int64]{Key: "create_report.query_id"}
//	dag.Write(state, queryID, 42)
//	id, err := dag.Read(state, queryID)
package dag

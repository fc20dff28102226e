// Package operators provides the dag nodes of the spindle pipeline. Each
// node delegates to a collaborator declared here as an interface, so the
// graph can run against the real DV360, storage and BigQuery clients or
// against fakes.
//
// Nodes pass values to each other through typed ports:
//
//	create := operators.NewCreateReport("create_report", definition, reports)
//	run := operators.NewRunReport("run_report", operators.QueryIDPort("create_report"), reports)
package operators

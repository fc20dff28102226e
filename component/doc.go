// Package component defines the lifecycle interface shared by the
// infrastructure spindle talks to (object storage, BigQuery, DV360 clients,
// the variable store, the admin server) and a Registry that starts them in
// order and stops them in reverse.
package component

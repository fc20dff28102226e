// Package dv360 wraps the two Display & Video 360 APIs the pipeline talks to.
//
// ReportClient drives the Bid Manager v2 API: it creates a query from a
// rendered report definition, runs it, reports the run's state and deletes
// the query. SDFClient drives the Display & Video 360 v3 API: it creates an
// SDF download task for a group of advertisers, waits for the task to
// finish and streams the CSV files out of the resulting archive.
//
// Calls are throttled by a resilience.RateLimiter and API errors are
// translated into the errors package taxonomy.
package dv360

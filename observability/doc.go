// Package observability wires OpenTelemetry tracing and metrics for spindle.
//
// Both providers export over OTLP/HTTP and are disabled unless
// observability.enabled is set:
//
//	shutdown, err := observability.Init(ctx, cfg.Observability, "spindle", version, env)
//	defer shutdown(ctx)
//
// Task-level spans and metrics are recorded by the dag package wrappers
// (dag.WithTracing, dag.WithMetrics) using the instruments in Metrics.
package observability

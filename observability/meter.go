package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

func initMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the DAG run instruments.
type Metrics struct {
	taskTotal    metric.Int64Counter
	taskDuration metric.Float64Histogram
	taskAttempts metric.Int64Histogram
	attemptTotal metric.Int64Counter
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	taskTotal, err := meter.Int64Counter("dag.task.total",
		metric.WithDescription("Task executions by final status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dag.task.total counter: %w", err)
	}

	taskDuration, err := meter.Float64Histogram("dag.task.duration",
		metric.WithDescription("Duration of task executions including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dag.task.duration histogram: %w", err)
	}

	taskAttempts, err := meter.Int64Histogram("dag.task.attempts",
		metric.WithDescription("Attempts made per task execution"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dag.task.attempts histogram: %w", err)
	}

	attemptTotal, err := meter.Int64Counter("dag.task.attempt.total",
		metric.WithDescription("Individual task attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dag.task.attempt.total counter: %w", err)
	}

	runTotal, err := meter.Int64Counter("dag.run.total",
		metric.WithDescription("DAG runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dag.run.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("dag.run.duration",
		metric.WithDescription("Duration of DAG runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dag.run.duration histogram: %w", err)
	}

	return &Metrics{
		taskTotal:    taskTotal,
		taskDuration: taskDuration,
		taskAttempts: taskAttempts,
		attemptTotal: attemptTotal,
		runTotal:     runTotal,
		runDuration:  runDuration,
	}, nil
}

// RecordTask records one finished task execution.
func (m *Metrics) RecordTask(ctx context.Context, dagID, task, status string, attempts int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("dag", dagID),
		attribute.String("task", task),
		attribute.String("status", status),
	)
	m.taskTotal.Add(ctx, 1, attrs)
	m.taskDuration.Record(ctx, duration.Seconds(), attrs)
	if attempts > 0 {
		m.taskAttempts.Record(ctx, int64(attempts), attrs)
	}
}

// RecordAttempt records a single attempt of a task.
func (m *Metrics) RecordAttempt(ctx context.Context, dagID, task string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.attemptTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dag", dagID),
		attribute.String("task", task),
		attribute.String("outcome", outcome),
	))
}

// RecordRun records one finished DAG run.
func (m *Metrics) RecordRun(ctx context.Context, dagID string, failed bool, duration time.Duration) {
	status := "success"
	if failed {
		status = "failed"
	}
	attrs := metric.WithAttributes(
		attribute.String("dag", dagID),
		attribute.String("status", status),
	)
	m.runTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

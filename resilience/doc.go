// Package resilience provides the fault-handling primitives spindle's tasks
// and clients are built on.
//
//   - Retry: the uniform task retry policy (fixed delay by default)
//   - Poll: the poke loop behind sensors
//   - RateLimiter: token bucket in front of the DV360 APIs
//   - CircuitBreaker: fail fast on report downloads after repeated errors
//   - Bulkhead: bounds how many DAG tasks run at once
//
// A task that should be attempted four times, five minutes apart:
//
//	cfg := resilience.FixedDelay(3, 5*time.Minute)
//	attempts, err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
//	    return task.Run(ctx)
//	})
package resilience

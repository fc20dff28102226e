// Package httpclient is the HTTP client used to fetch DV360 report files
// from their signed download URLs.
//
// Every request passes through an optional rate limiter and circuit breaker
// and, for buffered requests, a retry policy:
//
//	client, _ := httpclient.New(httpclient.Config{
//	    Timeout:        5 * time.Minute,
//	    CircuitBreaker: httpclient.BreakerConfig{MaxFailures: 5, Cooldown: time.Minute},
//	})
//	body, err := client.Fetch(ctx, reportURL)
//
// Failed requests return *Error, classified by status code.
package httpclient

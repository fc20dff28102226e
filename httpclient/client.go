package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/resilience"
)

// Client is an HTTP client with rate limiting, circuit breaking and retry.
type Client struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
	rl         *resilience.RateLimiter
	log        *logger.Logger
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		config:     cfg,
		log:        logger.Get("httpclient").WithFields(logger.Fields("client", cfg.Name)),
	}
	if cfg.CircuitBreaker.MaxFailures > 0 {
		c.cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        cfg.Name,
			MaxFailures: cfg.CircuitBreaker.MaxFailures,
			Cooldown:    cfg.CircuitBreaker.Cooldown,
			OnStateChange: func(name string, from, to resilience.State) {
				c.log.Warn("circuit breaker state changed", logger.Fields("from", from.String(), "to", to.String()))
			},
		})
	}
	if cfg.RateLimit.Rate > 0 {
		c.rl = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  cfg.Name,
			Rate:  cfg.RateLimit.Rate,
			Burst: cfg.RateLimit.Burst,
		})
	}
	return c, nil
}

// Do executes a request, reads the whole body and retries retryable
// failures under the configured policy.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	return resilience.Retry(ctx, c.config.retryPolicy(), func(ctx context.Context) (*Response, error) {
		ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()

		resp, err := c.send(ctx, req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
	})
}

// Fetch issues a GET for url and returns the response body as a stream.
// The caller must close it. Only the request up to the response headers is
// retried; the transfer is bounded by ctx. Failures are returned as
// pipeline errors with the *Error in their chain.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := resilience.Retry(ctx, c.config.retryPolicy(), func(ctx context.Context) (*http.Response, error) {
		return c.send(ctx, Request{Method: http.MethodGet, URL: url})
	})
	if err != nil {
		return nil, ToAppError(c.config.Name, err)
	}
	return resp.Body, nil
}

// Unwrap returns the underlying *http.Client.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// send performs one request through the rate limiter and circuit breaker.
// A non-2xx response is drained, closed and returned as *Error.
func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return nil, NewTimeoutError(err)
		}
	}

	var resp *http.Response
	call := func() error {
		var err error
		resp, err = c.roundTrip(ctx, req)
		return err
	}
	if c.cb == nil {
		err := call()
		return resp, err
	}
	err := c.cb.Execute(call)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, NewCircuitOpenError(c.config.Name)
	}
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	if classErr := ClassifyStatusCode(resp.StatusCode, nil); classErr != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		classErr.Body = body
		return nil, classErr
	}
	return resp, nil
}

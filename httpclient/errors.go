package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/spindle/errors"
)

// ErrorCode classifies a failed download.
type ErrorCode int

const (
	// ErrCodeTimeout is a request that did not finish before its deadline.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection is a transport failure before a response arrived.
	ErrCodeConnection
	// ErrCodeAuth is a 401 or 403, usually an expired signed report URL.
	ErrCodeAuth
	// ErrCodeNotFound is a 404.
	ErrCodeNotFound
	// ErrCodeRateLimit is a 429.
	ErrCodeRateLimit
	// ErrCodeValidation is any other 4xx or a request that could not be built.
	ErrCodeValidation
	// ErrCodeServer is a 5xx.
	ErrCodeServer
	// ErrCodeCircuitOpen is a call rejected by the circuit breaker.
	ErrCodeCircuitOpen
)

var codeNames = map[ErrorCode]string{
	ErrCodeTimeout:     "timeout",
	ErrCodeConnection:  "connection",
	ErrCodeAuth:        "auth",
	ErrCodeNotFound:    "not_found",
	ErrCodeRateLimit:   "rate_limit",
	ErrCodeValidation:  "validation",
	ErrCodeServer:      "server",
	ErrCodeCircuitOpen: "circuit_open",
}

// String returns the error code name.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Error is a classified client failure.
type Error struct {
	// StatusCode is 0 for failures without a response.
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body holds the start of the error response, if any.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTimeoutError wraps a deadline or rate limiter wait failure.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError wraps a transport failure.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewValidationError reports a request that could not be built.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// NewCircuitOpenError reports a call rejected by the open circuit of name.
func NewCircuitOpenError(name string) *Error {
	return &Error{Code: ErrCodeCircuitOpen, Message: fmt.Sprintf("circuit %s is open", name)}
}

// ClassifyStatusCode returns nil for a 2xx status and a classified error
// otherwise. Only 429 and 5xx responses are retryable.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{StatusCode: statusCode, Message: fmt.Sprintf("HTTP %d", statusCode), Body: body}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// IsRetryable reports whether err is a retryable client error. It is the
// retry predicate of every client call.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// ToAppError converts a client error into the pipeline error taxonomy.
// Errors that are not *Error are returned unchanged.
func ToAppError(service string, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	switch e.Code {
	case ErrCodeNotFound:
		return apperrors.NotFound(service+" object", "").WithCause(err)
	case ErrCodeRateLimit:
		return apperrors.RateLimited(service).WithCause(err)
	case ErrCodeTimeout:
		return apperrors.Timeout(service).WithCause(err)
	case ErrCodeCircuitOpen:
		return apperrors.ServiceUnavailable(service).WithCause(err)
	default:
		return apperrors.ExternalServiceError(service, err)
	}
}

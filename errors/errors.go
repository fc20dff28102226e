package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is used by the admin server when the error is returned to a client.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Retryable:  IsRetryableCode(code),
	}
}

// ConfigInvalid reports an invalid configuration value.
func ConfigInvalid(field, reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: fmt.Sprintf("Invalid configuration for %s: %s", field, reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// VariableMissing reports a pipeline variable that the variable store does not hold.
func VariableMissing(name string) *AppError {
	return &AppError{
		Code: ErrCodeVariableMissing, Message: fmt.Sprintf("Variable %s is not set.", name),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"variable": name},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for struct validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// TemplateInvalid reports a report definition that rendered to malformed JSON.
func TemplateInvalid(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTemplateInvalid, Message: fmt.Sprintf("Report definition %s did not render to valid JSON.", name),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"template": name}, Cause: cause,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// ReportFailed reports a query whose report run ended in a failed state.
func ReportFailed(queryID, reportID int64, state string) *AppError {
	return &AppError{
		Code: ErrCodeReportFailed, Message: fmt.Sprintf("Report %d of query %d finished in state %s.", reportID, queryID, state),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"query_id": queryID, "report_id": reportID, "state": state},
	}
}

// SensorTimeout reports a sensor that did not observe its condition in time.
func SensorTimeout(task string, timeout fmt.Stringer) *AppError {
	return &AppError{
		Code: ErrCodeSensorTimeout, Message: fmt.Sprintf("Sensor %s timed out after %s.", task, timeout),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"task": task},
	}
}

// LoadFailed reports a warehouse job that completed with an error.
func LoadFailed(table string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeLoadFailed, Message: fmt.Sprintf("Warehouse job for %s failed.", table),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"table": table}, Cause: cause,
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// RateLimited creates a new AppError for an exhausted API quota.
func RateLimited(service string) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: fmt.Sprintf("The %s quota is exhausted.", service),
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service returned an error.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

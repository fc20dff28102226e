package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates a backing service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates an operation did not finish in time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates an API quota was hit.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Configuration errors
const (
	// ErrCodeConfigInvalid indicates the pipeline configuration is invalid.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeVariableMissing indicates a required pipeline variable is not set.
	ErrCodeVariableMissing ErrorCode = "VARIABLE_MISSING"
	// ErrCodeInvalidInput indicates an input value is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeTemplateInvalid indicates a report definition did not render to valid JSON.
	ErrCodeTemplateInvalid ErrorCode = "TEMPLATE_INVALID"
)

// Pipeline execution errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeReportFailed indicates the reporting API marked a report as failed.
	ErrCodeReportFailed ErrorCode = "REPORT_FAILED"
	// ErrCodeSensorTimeout indicates a sensor gave up waiting for its condition.
	ErrCodeSensorTimeout ErrorCode = "SENSOR_TIMEOUT"
	// ErrCodeLoadFailed indicates a warehouse job finished with an error.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
	ErrCodeLoadFailed:         true,
	ErrCodeSensorTimeout:      true,
}

// IsRetryableCode returns true if the error code indicates a transient failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

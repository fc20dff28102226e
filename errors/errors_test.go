package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestAppError_New_NotRetryable(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_VariableMissing(t *testing.T) {
	err := VariableMissing("partner_ids")
	if err.Code != ErrCodeVariableMissing {
		t.Errorf("expected VARIABLE_MISSING, got %s", err.Code)
	}
	if err.Details["variable"] != "partner_ids" {
		t.Errorf("expected variable=partner_ids, got %v", err.Details["variable"])
	}
	if err.Retryable {
		t.Error("VariableMissing should not be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("report", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
}

func TestAppError_ReportFailed(t *testing.T) {
	err := ReportFailed(12, 34, "FAILED")
	if err.Code != ErrCodeReportFailed {
		t.Errorf("expected REPORT_FAILED, got %s", err.Code)
	}
	if !strings.Contains(err.Error(), "query 12") {
		t.Errorf("expected query id in message, got %q", err.Error())
	}
}

func TestAppError_SensorTimeout(t *testing.T) {
	err := SensorTimeout("wait_for_report", time.Minute)
	if !err.Retryable {
		t.Error("SensorTimeout should be retryable")
	}
	if !strings.Contains(err.Message, "1m0s") {
		t.Errorf("expected timeout in message, got %q", err.Message)
	}
}

func TestAppError_TemplateInvalid_Unwrap(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := TemplateInvalid("performance", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Retryable {
		t.Error("TemplateInvalid should not be retryable")
	}
}

func TestAppError_ExternalServiceError(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ExternalServiceError("bigquery", cause)
	if !err.Retryable {
		t.Error("ExternalServiceError should be retryable")
	}
	if err.Details["service"] != "bigquery" {
		t.Errorf("expected service=bigquery, got %v", err.Details["service"])
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected cause in error string, got %q", err.Error())
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := New(ErrCodeInternal, "boom").WithDetail("task", "load_csv_to_bq")
	if err.Details["task"] != "load_csv_to_bq" {
		t.Errorf("expected task detail, got %v", err.Details)
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	inner := LoadFailed("Reports", nil)
	wrapped := fmt.Errorf("task failed: %w", inner)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed")
	}
	if got.Code != ErrCodeLoadFailed {
		t.Errorf("expected LOAD_FAILED, got %s", got.Code)
	}
	if CodeOf(wrapped) != ErrCodeLoadFailed {
		t.Errorf("expected CodeOf LOAD_FAILED, got %s", CodeOf(wrapped))
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if got := CodeOf(fmt.Errorf("plain")); got != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got)
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error should not be an AppError")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := ConfigInvalid("dag.max_parallel", "must be >= 0")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %s", resp.Error.Code)
	}
	if resp.Error.Details["field"] != "dag.max_parallel" {
		t.Errorf("expected field detail, got %v", resp.Error.Details)
	}
}

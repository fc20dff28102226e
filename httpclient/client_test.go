package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/spindle/errors"
)

func TestClient_Do_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("User-Agent"); got != "spindle" {
			t.Errorf("expected default user agent, got %q", got)
		}
		_, _ = w.Write([]byte("Advertiser ID,Partner ID\n1,2\n"))
	}))
	defer srv.Close()

	c, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := c.Do(context.Background(), Request{URL: srv.URL + "/report.csv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "Advertiser ID,Partner ID\n1,2\n" {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestClient_Do_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Default"); got != "d" {
			t.Errorf("expected default header, got %q", got)
		}
		if got := r.Header.Get("X-Override"); got != "request" {
			t.Errorf("expected request header to win, got %q", got)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{Headers: map[string]string{"X-Default": "d", "X-Override": "client"}})
	_, err := c.Do(context.Background(), Request{URL: srv.URL, Headers: map[string]string{"X-Override": "request"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusForbidden, ErrCodeAuth},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusTooManyRequests, ErrCodeRateLimit},
		{http.StatusBadRequest, ErrCodeValidation},
		{http.StatusBadGateway, ErrCodeServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("detail"))
			}))
			defer srv.Close()

			c, _ := New(Config{})
			_, err := c.Do(context.Background(), Request{URL: srv.URL})
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if e.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, e.Code)
			}
			if string(e.Body) != "detail" {
				t.Errorf("expected body to be kept, got %q", e.Body)
			}
		})
	}
}

func TestClient_Do_Retry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, _ := New(Config{Retries: 2, RetryDelay: time.Millisecond})
	resp, err := c.Do(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("expected ok, got %q", resp.Body)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_Do_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := New(Config{Retries: 3, RetryDelay: time.Millisecond})
	_, err := c.Do(context.Background(), Request{URL: srv.URL})
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestClient_Do_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := New(Config{Name: "reports", CircuitBreaker: BreakerConfig{MaxFailures: 2, Cooldown: time.Hour}})
	for range 2 {
		_, _ = c.Do(context.Background(), Request{URL: srv.URL})
	}
	_, err := c.Do(context.Background(), Request{URL: srv.URL})
	e, ok := err.(*Error)
	if !ok || e.Code != ErrCodeCircuitOpen {
		t.Fatalf("expected circuit open error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls to reach the server, got %d", calls.Load())
	}
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := New(Config{})
	_, err := c.Do(ctx, Request{URL: srv.URL})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClient_Fetch_Streams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Date,Impressions\n2024-01-01,10\n"))
	}))
	defer srv.Close()

	c, _ := New(Config{RateLimit: LimitConfig{Rate: 100, Burst: 1}})
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "Date,Impressions\n2024-01-01,10\n" {
		t.Errorf("unexpected body %q", data)
	}
}

func TestClient_Fetch_ErrorStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantCode  ErrorCode
		wantApp   apperrors.ErrorCode
	}{
		{"forbidden not retried", http.StatusForbidden, 1, ErrCodeAuth, apperrors.ErrCodeExternalService},
		{"not found not retried", http.StatusNotFound, 1, ErrCodeNotFound, apperrors.ErrCodeNotFound},
		{"server error retried", http.StatusBadGateway, 3, ErrCodeServer, apperrors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, _ := New(Config{Name: "report-download", Retries: 2, RetryDelay: time.Millisecond})
			body, err := c.Fetch(context.Background(), srv.URL)
			if body != nil {
				t.Error("expected no body on error")
			}
			if got := apperrors.CodeOf(err); got != tt.wantApp {
				t.Errorf("expected %s, got %s (%v)", tt.wantApp, got, err)
			}
			var e *Error
			if !errors.As(err, &e) || e.Code != tt.wantCode {
				t.Errorf("expected %s in the chain, got %v", tt.wantCode, err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls.Load())
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"negative retries", Config{Retries: -1}, true},
		{"negative rate", Config{RateLimit: LimitConfig{Rate: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	comp := NewComponent(Config{Name: "reports"})
	if h := comp.Health(context.Background()); h.Status != "unhealthy" {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Client() == nil {
		t.Fatal("expected client after start")
	}
	if h := comp.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("expected healthy, got %s", h.Status)
	}
	if d := comp.Describe(); d.Type != "http" || d.Name != "reports" {
		t.Errorf("unexpected description %+v", d)
	}
	if err := comp.Stop(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// internal/datasource/httpds/client_test.go
//
// These tests exercise the retrying HTTP client, focusing on:
//   - Default configuration values.
//   - Retry and backoff behavior on transient failures.
//   - Handling of non-retryable statuses.
//   - Context-aware sleep behavior.

package httpds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient_Defaults verifies that NewClient fills zero config fields
// with usable defaults. A zero timeout would be dangerous for pipeline
// code, so that case is checked explicitly.
func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{})

	if c.http.Timeout <= 0 {
		t.Fatalf("expected non-zero timeout, got %v", c.http.Timeout)
	}
	if c.cfg.InitialBackoff <= 0 {
		t.Fatalf("expected default initialBackoff > 0, got %v", c.cfg.InitialBackoff)
	}
	if c.cfg.MaxBackoff <= 0 {
		t.Fatalf("expected default maxBackoff > 0, got %v", c.cfg.MaxBackoff)
	}
	if c.cfg.MaxRetries != 0 {
		t.Fatalf("expected default maxRetries=0, got %d", c.cfg.MaxRetries)
	}
}

// TestGet_Success_NoRetry verifies that a 200 response returns
// immediately without consuming any retry budget.
func TestGet_Success_NoRetry(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     3,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	c.sleep = func(context.Context, time.Duration) error { return nil }

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly 1 request, got %d", got)
	}
}

// TestGet_RetryOn5xxThenSuccess verifies the recovery path: two 500s
// followed by a 200 should produce a successful response after three
// attempts, with backoff sleeps in between.
func TestGet_RetryOn5xxThenSuccess(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     3,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})

	var sleeps []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts (2x500 + 1x200), got %d", got)
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(sleeps))
	}
}

// TestGet_StopsAfterMaxRetries verifies that a persistently failing
// server exhausts the retry budget and surfaces the last status in the
// returned error.
func TestGet_StopsAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     2,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	c.sleep = func(context.Context, time.Duration) error { return nil }

	resp, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatalf("expected error after exhausting retries, got nil")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts (1 initial + 2 retries), got %d", got)
	}
}

// TestGet_NonRetryableStatus verifies that statuses like 404 are handed
// back to the caller immediately instead of burning retries.
func TestGet_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     5,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	c.sleep = func(context.Context, time.Duration) error { return nil }

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 attempt for non-retryable status, got %d", got)
	}
}

// TestBackoffDuration verifies doubling per retry with clamping at the
// configured maximum.
func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
	})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 100 * time.Millisecond},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 3, want: 400 * time.Millisecond},
		{attempt: 4, want: 800 * time.Millisecond},
		{attempt: 5, want: time.Second},
		{attempt: 9, want: time.Second},
	}
	for _, tt := range tests {
		tt := tt
		t.Run("attempt="+strconv.Itoa(tt.attempt), func(t *testing.T) {
			t.Parallel()
			if got := c.backoffDuration(tt.attempt); got != tt.want {
				t.Fatalf("backoffDuration(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

// TestIsRetryableStatus verifies that 5xx and 429 are retryable while
// common terminal statuses are not.
func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	retryable := []int{429, 500, 502, 503}
	nonRetryable := []int{200, 301, 400, 404}

	for _, code := range retryable {
		if !isRetryableStatus(code) {
			t.Errorf("expected status %d to be retryable", code)
		}
	}
	for _, code := range nonRetryable {
		if isRetryableStatus(code) {
			t.Errorf("expected status %d to be non-retryable", code)
		}
	}
}

// TestSleepWithContextCancellation verifies that a canceled context cuts
// the backoff sleep short.
func TestSleepWithContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepWithContext(ctx, 100*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

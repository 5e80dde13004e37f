// Package httpds provides a datasource.Provider that downloads the raw
// dataset over HTTP with bounded retries.
package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config controls timeout and retry behaviour of the Client. Zero values
// are replaced with defaults.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	return c
}

// Client is an HTTP client that retries transient failures with
// exponential backoff. Connection errors and retryable status codes
// (429 and all 5xx) trigger a retry; any other response is returned to
// the caller as-is.
type Client struct {
	http  *http.Client
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client configured from cfg.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		http:  &http.Client{Timeout: cfg.Timeout},
		cfg:   cfg,
		sleep: sleepWithContext,
	}
}

// Get issues a GET request to url, retrying per the client config. The
// caller owns the response body on success.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

// do runs the retry loop. newReq builds a fresh request per attempt so a
// consumed body never gets reused.
func (c *Client) do(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoffDuration(attempt)); err != nil {
				return nil, err
			}
		}

		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		lastErr = fmt.Errorf("server returned %s", resp.Status)
		drain(resp)
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

// backoffDuration doubles the initial backoff per retry, clamped at the
// configured maximum.
func (c *Client) backoffDuration(attempt int) time.Duration {
	d := c.cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.cfg.MaxBackoff {
			return c.cfg.MaxBackoff
		}
	}
	if d > c.cfg.MaxBackoff {
		return c.cfg.MaxBackoff
	}
	return d
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// drain discards a response body so the connection can be reused by the
// next attempt.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

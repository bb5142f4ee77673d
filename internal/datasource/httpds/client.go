// Package httpds implements the HTTP download client used to acquire the
// source CSV. It retries transient failures with exponential backoff and
// reports final non-success statuses as *StatusError.
//
// The client:
//
//   - treats transport errors, 429 and 5xx as transient;
//   - respects context cancellation during requests and backoff waits;
//   - can skip TLS verification for endpoints with invalid certificates;
//   - is testable by injecting a RoundTripper and the backoff wait.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures the HTTP client.
//
// Zero values are given sensible defaults:
//   - Timeout:        30s
//   - MaxRetries:     0
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// Timeout is the per-attempt timeout applied at the http.Client level. It
	// covers reading the body, so it bounds the whole download.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Each subsequent retry
	// doubles it up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// BaseHeaders are added to every request. Per-request headers take
	// precedence.
	BaseHeaders http.Header

	// Transport is an optional custom RoundTripper. When nil, a default
	// *http.Transport is built from the TLS settings.
	Transport http.RoundTripper
}

// StatusError is returned when the server answers with a status that is not
// 2xx, after retries for transient statuses are exhausted.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	baseHeaders    http.Header

	// wait is injectable to make tests fast and deterministic.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	hdr := http.Header{}
	for k, vs := range cfg.BaseHeaders {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		baseHeaders:    hdr,
		wait:           sleepWithContext,
	}
}

// Get sends a GET request, retrying transport errors and transient statuses.
//
// The returned *http.Response has a 2xx status and a non-nil Body which the
// caller must close. Any other final status yields a *StatusError.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		// Base headers first, then per-request headers (which override).
		for k, vs := range c.baseHeaders {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("httpds: GET %s: %w", url, err)
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			return resp, nil
		default:
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
			_ = resp.Body.Close()
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
			if !isRetryableStatus(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt+1 >= attempts {
			break
		}
		if err := c.wait(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// Fetch downloads url into w and returns the number of bytes copied. A body
// that fails mid-copy is not retried; the caller discards w.
func (c *Client) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.Get(ctx, url, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("httpds: read body of %s: %w", url, err)
	}
	return n, nil
}

// isRetryableStatus reports whether the given HTTP status code should trigger
// a retry: 5xx and 429 are transient, everything else is final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	// Guard the shift so large attempt counts cannot overflow to negative.
	if attempt >= 62 || initial > max>>attempt {
		return max
	}
	return initial << attempt
}

// sleepWithContext waits for d, aborting early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package health implements the readiness poll loop for the stack under
// test: GET the page URL at a fixed interval until it answers 200 OK or
// the timeout elapses.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"webharness/internal/httpclient"
)

// ErrTimeout is returned when the deadline passes without a 200 response.
// The wrapped message carries the last observed failure.
var ErrTimeout = errors.New("health check timed out")

// Checker polls a URL until it reports healthy.
type Checker struct {
	// Client is the HTTP client used for probes. Nil means the default
	// probe client (5s request timeout).
	Client *http.Client

	// Interval is the fixed delay between probes. Zero means 5s.
	Interval time.Duration

	// Timeout bounds the whole wait. Zero means 120s.
	Timeout time.Duration

	// Logger receives one line per probe. Nil means slog.Default().
	Logger *slog.Logger
}

// Wait blocks until url answers 200, the timeout elapses, or ctx is
// canceled. Probing starts immediately; the interval applies between
// attempts, not before the first one.
func (c *Checker) Wait(ctx context.Context, url string) error {
	client := c.Client
	if client == nil {
		client = httpclient.NewDefault()
	}
	interval := c.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	logger.Info("waiting for stack to become healthy", "url", url, "timeout", timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		status, err := probe(ctx, client, url)
		switch {
		case err == nil && status == http.StatusOK:
			logger.Info("stack is healthy", "url", url)
			return nil
		case err != nil:
			lastErr = err
			logger.Debug("not yet healthy", "url", url, "error", err)
		default:
			lastErr = fmt.Errorf("unexpected status %d", status)
			logger.Debug("not yet healthy", "url", url, "status", status)
		}

		select {
		case <-ctx.Done():
			// Distinguish caller cancellation from a deadline.
			if errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			// The deadline that fired may belong to the caller rather
			// than to this checker, so report the time actually waited.
			waited := time.Since(start).Round(time.Millisecond)
			if lastErr != nil {
				return fmt.Errorf("%w after %s: last failure: %v", ErrTimeout, waited, lastErr)
			}
			return fmt.Errorf("%w after %s", ErrTimeout, waited)
		case <-ticker.C:
		}
	}
}

// probe performs one GET and reports the status code. The response body is
// drained and closed so connections can be reused across probes.
func probe(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

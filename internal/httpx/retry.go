// Package httpx holds the HTTP plumbing shared by the backend and chat clients.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	maxTries        = 4
	baseDelay       = 250 * time.Millisecond
	maxDelay        = 2 * time.Second
	maxErrorBodyLen = 4 << 10
)

// StatusError is a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

// NewClient returns an http.Client with the given timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Option tunes a single Do call.
type Option func(*doConfig)

type doConfig struct {
	repeatable bool
}

// Repeatable marks a request as safe to send again even though its method
// is not idempotent, e.g. a read-only POST.
func Repeatable() Option {
	return func(c *doConfig) { c.repeatable = true }
}

// Do sends the request built by makeReq. Idempotent methods, and requests
// marked Repeatable, are retried with exponential backoff on transport
// failures and retryable statuses. Everything else is sent once. Non-2xx
// responses come back as *StatusError. The caller closes the body.
func Do(ctx context.Context, client *http.Client, makeReq func(ctx context.Context) (*http.Request, error), opts ...Option) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	var cfg doConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.MaxInterval = maxDelay

	return backoff.Retry(ctx, func() (*http.Response, error) {
		req, err := makeReq(ctx)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		retry := cfg.repeatable || isIdempotent(req.Method)
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			err = fmt.Errorf("request failed: %w", err)
			if !retry {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		statusErr := readStatusError(resp)
		if !retry || !isRetryableStatus(resp.StatusCode) {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}, backoff.WithBackOff(b), backoff.WithMaxTries(maxTries))
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

func readStatusError(resp *http.Response) *StatusError {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Package httpclient provides the shared HTTP client used by all fetchers.
//
// Upstream job boards are flaky: transient connection errors and 5xx
// responses are common and worth retrying before a fetch cycle is written
// off. The client retries those with exponential backoff; 4xx responses are
// returned to the caller untouched.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ncurl/jobwatch/errors"
)

// UserAgent identifies jobwatch to upstream job boards.
const UserAgent = "jobwatch/0.1 (github.com/ncurl/jobwatch)"

const (
	defaultTimeout = 15 * time.Second
	maxAttempts    = 3
	baseBackoff    = 2 * time.Second
	maxBackoff     = 15 * time.Second
)

// Client wraps http.Client with retry on transient failures.
type Client struct {
	http        *http.Client
	baseBackoff time.Duration
}

// New creates a retrying HTTP client. A zero timeout uses the default (15s).
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseBackoff: baseBackoff,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// Get issues a GET request and returns the raw response body.
// Retries on connection errors and 5xx responses.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil, "")
}

// Post issues a POST request with the given body and content type.
// Retries on connection errors and 5xx responses.
func (c *Client) Post(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, body, contentType)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "request cancelled during backoff")
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		data, err := c.attempt(ctx, method, url, body, contentType)
		if err == nil {
			return data, nil
		}
		lastErr = err

		// Context errors and non-retryable HTTP statuses are final
		if ctx.Err() != nil || !isRetryable(err) {
			return nil, err
		}
	}

	return nil, errors.Wrapf(lastErr, "%s %s failed after %d attempts", method, url, maxAttempts)
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := errors.Wrapf(err, "%s %s", method, url)
		if isTimeout(err) {
			wrapped = errors.Mark(wrapped, errors.ErrTimeout)
		}
		return nil, errors.Mark(wrapped, errRetryable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read response body"), errRetryable)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, errors.Mark(errors.Newf("server error %d from %s", resp.StatusCode, url), errRetryable)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Wrapf(errors.ErrRateLimited, "%s", url)
	case resp.StatusCode >= 400:
		return nil, errors.Newf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return data, nil
}

var errRetryable = errors.New("retryable")

func isRetryable(err error) bool {
	return errors.Is(err, errRetryable)
}

// isTimeout covers both shapes a timed-out request takes: the per-task
// context deadline, and http.Client's own Timeout, which surfaces as a
// net.Error with Timeout() true.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

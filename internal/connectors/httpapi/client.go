// Package httpapi provides the throttled, retrying HTTP GET client shared
// by finkit's connectors.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/finkit/internal/logger"
	"github.com/custodia-labs/finkit/internal/metrics"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRetries is the default number of attempts for transient errors.
	DefaultRetries = 3

	// RetryDelay is the initial delay between retries; it doubles per attempt.
	RetryDelay = 500 * time.Millisecond

	// MaxBodySize caps response bodies (filings can be tens of megabytes).
	MaxBodySize = 64 << 20

	// MaxRetryAfter caps how long a server-supplied Retry-After may stall a retry.
	MaxRetryAfter = 60 * time.Second
)

// Client performs GET requests with proactive rate limiting and retries.
type Client struct {
	source     string
	http       *http.Client
	limiter    *rate.Limiter
	userAgent  string
	retries    int
	retryDelay time.Duration
	maxWait    time.Duration
	headers    map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRate sets the sustained requests per second. Zero or negative disables throttling.
func WithRate(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRetries sets the total number of attempts.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithRetryDelay sets the initial backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithMaxRetryAfter caps the wait honoured from Retry-After headers.
func WithMaxRetryAfter(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxWait = d
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// New creates a client. source labels errors, logs and metrics.
func New(source string, opts ...Option) *Client {
	c := &Client{
		source:     source,
		http:       &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		retries:    DefaultRetries,
		retryDelay: RetryDelay,
		maxWait:    MaxRetryAfter,
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the client's source label.
func (c *Client) Source() string {
	return c.source
}

// Get fetches url and returns the body and content type.
// 429 and 5xx responses and network errors are retried with exponential backoff.
func (c *Client) Get(ctx context.Context, url string) ([]byte, string, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		body, contentType, err := c.do(ctx, url)
		metrics.ObserveRequest(c.source, err)
		if err == nil {
			return body, contentType, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == c.retries || !c.shouldRetry(err) {
			break
		}

		wait := delay
		if apiErr, ok := err.(*APIError); ok && apiErr.RetryAfter > wait {
			wait = min(apiErr.RetryAfter, c.maxWait)
		}
		logger.Debug("%s: attempt %d failed (%v), retrying in %s", c.source, attempt, err, wait)

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}

	return nil, "", lastErr
}

func (c *Client) shouldRetry(err error) bool {
	if _, ok := err.(*APIError); ok {
		return IsRetryable(err)
	}
	// Transport errors (timeouts, resets) are worth another try.
	return true
}

func (c *Client) do(ctx context.Context, url string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("%s: building request: %w", c.source, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	logger.Debug("%s: GET %s", c.source, url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s: request failed: %w", c.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, "", &APIError{
			Source:     c.source,
			StatusCode: resp.StatusCode,
			URL:        url,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("%s: reading body: %w", c.source, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

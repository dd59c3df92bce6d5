package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/wonny/heatmap/pkg/logger"
)

// maxBodyBytes caps Fetch reads (64MB)
const maxBodyBytes = 64 << 20

// Client downloads source files over HTTP with retry, an optional token-bucket
// limit and conditional GETs (ETag / Last-Modified) so repeated reloads of an
// unchanged file cost a 304
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	retry      RetryConfig
	limiter    *rate.Limiter
	userAgent  string
	validators *gocache.Cache // url → cachedBody
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// StatusError is returned by Fetch for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

type cachedBody struct {
	etag         string
	lastModified string
	body         []byte
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout (default 30s)
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry retries 5xx/429 and transport errors with exponential backoff
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(c *Client) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		c.retry.MaxRetries = maxRetries
		c.retry.InitialDelay = initialDelay
	}
}

// WithoutRetry sends every request once
func WithoutRetry() Option {
	return WithRetry(0, 0)
}

// WithRateLimit limits outgoing requests to rps with the given burst; rps <= 0 disables
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a client: 30s timeout, 3 retries from 1s, no rate limit
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.WithComponent("httputil"),
		retry: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
		},
		userAgent:  "heatmap/1.0",
		validators: gocache.New(gocache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch GETs url and returns the body; non-2xx responses return *StatusError.
// A 304 to a conditional request returns the body of the previous download.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var prev *cachedBody
	if v, ok := c.validators.Get(url); ok {
		prev = v.(*cachedBody)
	}

	resp, err := c.do(ctx, url, prev)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && prev != nil {
		c.logger.WithField("url", url).Debug("Source not modified")
		return prev.body, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	etag, lastModified := resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")
	if etag != "" || lastModified != "" {
		c.validators.Set(url, &cachedBody{etag: etag, lastModified: lastModified, body: body}, gocache.NoExpiration)
	} else {
		c.validators.Delete(url)
	}
	return body, nil
}

// do sends the GET, retrying retryable outcomes
func (c *Client) do(ctx context.Context, url string, prev *cachedBody) (*http.Response, error) {
	start := time.Now()
	delay := c.retry.InitialDelay

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait failed: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create GET request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		if prev != nil {
			if prev.etag != "" {
				req.Header.Set("If-None-Match", prev.etag)
			}
			if prev.lastModified != "" {
				req.Header.Set("If-Modified-Since", prev.lastModified)
			}
		}

		resp, err := c.httpClient.Do(req)
		retryable := err != nil || IsRetryableError(resp.StatusCode)
		if !retryable || attempt >= c.retry.MaxRetries {
			c.logResult(url, resp, err, attempt+1, time.Since(start))
			return resp, err
		}

		wait := delay
		if err == nil {
			// 429/503의 Retry-After 우선
			if ra := retryAfter(resp.Header.Get("Retry-After")); ra > 0 {
				wait = ra
			}
			resp.Body.Close()
		}
		if wait > c.retry.MaxDelay {
			wait = c.retry.MaxDelay
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   wait,
			"url":     url,
		}).Warn("Retrying HTTP request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
	}
}

func (c *Client) logResult(url string, resp *http.Response, err error, attempts int, d time.Duration) {
	fields := map[string]interface{}{
		"url":      url,
		"attempts": attempts,
		"duration": d,
	}
	if err != nil {
		c.logger.WithError(err).WithFields(fields).Error("HTTP request failed")
		return
	}
	fields["status_code"] = resp.StatusCode
	c.logger.WithFields(fields).Debug("HTTP request completed")
}

// retryAfter parses a Retry-After header given in seconds
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

package myfcd

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/myfcd/harvester/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the harvester to the catalog servers, which
// block requests without a browser-like client identifier.
const DefaultUserAgent = "Mozilla/5.0 (compatible; myfcd-harvester/1.0)"

// maxPageSize bounds how much of a response body is read
const maxPageSize = 16 << 20

// retryBaseDelay is the first backoff step; tests shrink it to avoid real sleeps.
var retryBaseDelay = 500 * time.Millisecond

// ClientConfig holds the settings of the catalog HTTP client
type ClientConfig struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Headers    map[string]string
	RatePolicy RatePolicy
}

// Client fetches listing and detail pages from the MyFCD catalogs
type Client struct {
	httpClient  *http.Client
	userAgent   string
	headers     map[string]string
	maxRetries  int
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new catalog client
func NewClient(cfg ClientConfig) (*Client, error) {
	limiter, err := cfg.RatePolicy.Limiter()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:   userAgent,
		headers:     cfg.Headers,
		maxRetries:  maxRetries,
		rateLimiter: limiter,
	}, nil
}

// SetDebug enables per-request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	return c.httpClient.Do(req)
}

// Get returns the body of a page. Transport errors, 429 and 5xx responses
// are retried with exponential backoff; any other non-200 status fails at once.
// Failures are reported as *domain.FetchError.
func (c *Client) Get(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			backoff := exponentialBackoff(attempt - 1)
			if c.debug {
				log.Printf("[MYFCD] Retrying %s in %v (attempt %d/%d)", pageURL, backoff, attempt, c.maxRetries+1)
			}
			select {
			case <-ctx.Done():
				return nil, &domain.FetchError{URL: pageURL, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, &domain.FetchError{URL: pageURL, Err: fmt.Errorf("rate limiter: %w", err)}
		}

		if c.debug {
			log.Printf("[MYFCD] GET %s", pageURL)
		}

		resp, err := c.doRequest(ctx, pageURL)
		if err != nil {
			lastErr = &domain.FetchError{URL: pageURL, Err: err}
			if ctx.Err() != nil {
				return nil, lastErr
			}
			log.Printf("[MYFCD] Request error (attempt %d): %v", attempt, err)
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxPageSize)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			lastErr = &domain.FetchError{URL: pageURL, StatusCode: resp.StatusCode}
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			log.Printf("[MYFCD] HTTP %d (attempt %d) for %s", resp.StatusCode, attempt, pageURL)
			continue
		}
		if readErr != nil {
			lastErr = &domain.FetchError{URL: pageURL, Err: fmt.Errorf("reading body: %w", readErr)}
			continue
		}

		return body, nil
	}

	return nil, lastErr
}

// readLimitedBody reads at most limit bytes of body
func readLimitedBody(body io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, limit))
}

// exponentialBackoff returns the wait before retry n (1-based): 500ms, 1s, 2s, ...
func exponentialBackoff(n int) time.Duration {
	return retryBaseDelay * time.Duration(1<<(n-1))
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

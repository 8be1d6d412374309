// Package sportsdb provides the HTTP client and feed helpers for TheSportsDB.
//
// v1 uses the API key as a path segment and exposes a per-round endpoint; v2
// uses an X-API-KEY header and only offers the full season schedule.
// Rate limiting is handled via a single token bucket limiter per Client, shared
// by feed requests and artwork downloads.
package sportsdb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0 Safari/537.36"
	defaultTimeout      = 30 * time.Second
	defaultRetryBackoff = 3 * time.Second
	defaultMaxBackoff   = time.Minute
	maxBodyBytes        = 32 << 20
)

// Options configures a Client. Zero values fall back to defaults, except
// Interval where zero disables throttling.
type Options struct {
	Interval         time.Duration // minimum gap between request starts
	MaxRetries       int           // retries after the first attempt
	RetryBackoff     time.Duration // base delay, doubled per attempt
	MaxBackoff       time.Duration
	Timeout          time.Duration // per request
	Insecure         bool
	InsecureFallback bool // switch to insecure TLS after a verification failure
	UserAgent        string
	HTTPClient       *http.Client
}

// Client is the shared, rate-limited HTTP client for all SportsDB traffic.
type Client struct {
	mu         sync.Mutex
	httpClient *http.Client
	insecure   bool

	limiter          *rate.Limiter
	maxRetries       int
	retryBackoff     time.Duration
	maxBackoff       time.Duration
	insecureFallback bool
	userAgent        string
	logger           *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a SportsDB HTTP client with rate limiting.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: newTransport(opts.Insecure),
		}
	}

	return &Client{
		httpClient:       httpClient,
		insecure:         opts.Insecure,
		limiter:          rate.NewLimiter(limit, 1),
		maxRetries:       opts.MaxRetries,
		retryBackoff:     opts.RetryBackoff,
		maxBackoff:       opts.MaxBackoff,
		insecureFallback: opts.InsecureFallback,
		userAgent:        opts.UserAgent,
		logger:           logger,
		sleep:            sleepContext,
	}
}

// FetchJSON performs a rate-limited GET and decodes the JSON body into out.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	body, _, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{URL: redactURL(rawURL), Err: err}
	}
	return nil
}

// Download fetches a binary asset through the same limiter and retry policy
// as feed requests.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	return c.Get(ctx, rawURL, map[string]string{"Accept": "image/*"})
}

// Get performs a rate-limited GET with retry/backoff and returns the body and
// its content type.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, string, error) {
	safeURL := redactURL(rawURL)
	attempt := 0
	for {
		body, contentType, err := c.do(ctx, rawURL, safeURL, headers)
		if err == nil {
			return body, contentType, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		if c.tryInsecureFallback(err, safeURL) {
			continue
		}
		if !IsRetryable(err) || attempt >= c.maxRetries {
			return nil, "", err
		}

		wait := c.backoff(attempt, err)
		c.logger.Warn("SportsDB request failed, retrying",
			"url", safeURL, "attempt", attempt+1, "max_retries", c.maxRetries,
			"wait", wait, "error", err)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, "", err
		}
		attempt++
	}
}

// do issues exactly one request after waiting on the shared limiter.
func (c *Client) do(ctx context.Context, rawURL, safeURL string, headers map[string]string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.currentHTTPClient().Do(req)
	if err != nil {
		return nil, "", &NetworkError{URL: safeURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", &NetworkError{URL: safeURL, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{URL: safeURL, Status: resp.StatusCode, Body: truncate(body, 200)}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, "", &retryAfterError{HTTPError: httpErr, after: parseRetryAfter(resp.Header.Get("Retry-After"))}
		}
		return nil, "", httpErr
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// backoff returns base * 2^attempt capped at maxBackoff. A longer Retry-After
// from a 429 wins, still capped.
func (c *Client) backoff(attempt int, err error) time.Duration {
	wait := c.retryBackoff
	for i := 0; i < attempt && wait < c.maxBackoff; i++ {
		wait *= 2
	}
	var ra *retryAfterError
	if errors.As(err, &ra) && ra.after > wait {
		wait = ra.after
	}
	if wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	return wait
}

func (c *Client) currentHTTPClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.httpClient
}

// tryInsecureFallback swaps in a transport without certificate verification
// after a TLS verification failure, when the caller opted in.
func (c *Client) tryInsecureFallback(err error, safeURL string) bool {
	if !c.insecureFallback || !isCertificateError(err) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.insecure {
		return false
	}
	c.logger.Warn("TLS verification failed, retrying without verification", "url", safeURL, "error", err)
	clone := *c.httpClient
	clone.Transport = newTransport(true)
	c.httpClient = &clone
	c.insecure = true
	return true
}

func newTransport(insecure bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in
	}
	return t
}

func isCertificateError(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	var verification *tls.CertificateVerificationError
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid) ||
		errors.As(err, &verification)
}

// retryAfterError carries the server-suggested delay of a 429 response.
type retryAfterError struct {
	*HTTPError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.HTTPError }

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// redactURL hides the v1 path key and any key query parameters in log output.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	segments := strings.Split(u.Path, "/")
	for i := 0; i+2 < len(segments); i++ {
		if segments[i] == "json" && strings.HasSuffix(segments[i+2], ".php") {
			segments[i+1] = "REDACTED"
			break
		}
	}
	u.Path = strings.Join(segments, "/")
	q := u.Query()
	for _, key := range []string{"api_key", "api_token", "key"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

// Package webclient wraps net/http for the crawler's three request shapes:
// metadata-only HEAD probes, streamed file transfers, and bounded page
// fetches. It carries the identifying User-Agent, optional basic auth, and
// per-shape timeouts so a single unresponsive server cannot stall a crawl.
package webclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default client settings.
const (
	// DefaultProbeTimeout bounds HEAD probes. Probes carry no body, so a
	// short timeout keeps freshness checks cheap.
	DefaultProbeTimeout = 10 * time.Second

	// DefaultPageTimeout bounds HTML page fetches during crawling.
	DefaultPageTimeout = 15 * time.Second

	// DefaultTransferTimeout bounds full file transfers. Files can be
	// large, so this is the most generous of the three.
	DefaultTransferTimeout = 30 * time.Second

	// DefaultUserAgent identifies filegrab in HTTP requests. A descriptive
	// User-Agent lets operators identify crawler traffic in their logs.
	DefaultUserAgent = "filegrab/1.0 (+https://github.com/filegrab/filegrab)"

	// DefaultMaxPageSize limits how much of an HTML page we read.
	// Pages larger than this are truncated rather than exhausting memory.
	DefaultMaxPageSize = 5 * 1024 * 1024 // 5MB
)

// Client performs the HTTP requests the crawler needs. All requests share
// one underlying transport; timeouts are applied per request shape via
// context deadlines.
type Client struct {
	// httpClient is the shared underlying client. Its Timeout is left at
	// zero; deadlines come from per-call contexts.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// username and password enable HTTP basic auth when both are set.
	username string
	password string

	// probeTimeout, pageTimeout, and transferTimeout bound the three
	// request shapes.
	probeTimeout    time.Duration
	pageTimeout     time.Duration
	transferTimeout time.Duration

	// maxPageSize limits page body reads.
	maxPageSize int64
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithBasicAuth attaches basic-auth credentials to every request.
// Empty credentials disable basic auth.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithProbeTimeout sets the HEAD probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.probeTimeout = d
	}
}

// WithPageTimeout sets the page fetch timeout.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.pageTimeout = d
	}
}

// WithTransferTimeout sets the file transfer timeout.
func WithTransferTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.transferTimeout = d
	}
}

// WithMaxPageSize sets the maximum page body size.
func WithMaxPageSize(size int64) Option {
	return func(c *Client) {
		c.maxPageSize = size
	}
}

// WithHTTPClient replaces the underlying http.Client. Useful in tests and
// for callers that need custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		userAgent:       DefaultUserAgent,
		probeTimeout:    DefaultProbeTimeout,
		pageTimeout:     DefaultPageTimeout,
		transferTimeout: DefaultTransferTimeout,
		maxPageSize:     DefaultMaxPageSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Probe is the result of a metadata-only HEAD request: the cache
// validators the server exposes, without any body transfer.
type Probe struct {
	// StatusCode is the HTTP status of the probe response.
	StatusCode int

	// ETag is the ETag header, empty when the server sent none.
	ETag string

	// LastModified is the Last-Modified header verbatim, empty when the
	// server sent none. We compare it as an opaque string, never as a
	// parsed time.
	LastModified string
}

// ProbeURL issues a HEAD request and returns the server's cache
// validators. Redirects are followed. A non-2xx status is an error: a
// probe that cannot confirm the resource proves nothing.
func (c *Client) ProbeURL(ctx context.Context, url string) (*Probe, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("probe for %s returned status %d", url, resp.StatusCode)
	}

	return &Probe{
		StatusCode:   resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// Fetch issues a GET request for a file transfer and returns the response
// with its body still open for streaming. The caller owns the body and
// must close it. A non-2xx status is an error; the body is drained and
// closed before returning.
//
// The transfer timeout covers the whole download, not just the first
// byte, so the returned body becomes unreadable once the deadline passes.
func (c *Client) Fetch(ctx context.Context, url string) (*http.Response, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.transferTimeout)

	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("fetch failed for %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // Drain for connection reuse
		_ = resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("fetch for %s returned status %d", url, resp.StatusCode)
	}

	return resp, cancel, nil
}

// Page fetches an HTML page and returns its body, truncated at the
// configured size limit. A non-2xx status is an error.
func (c *Client) Page(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("page fetch for %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body for %s: %w", url, err)
	}

	return body, nil
}

// HTTPClient exposes the underlying http.Client for collaborators that
// issue their own requests (the robots gate).
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// UserAgent returns the configured User-Agent string.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// newRequest builds a request with the client's standing headers.
func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request for %s: %w", method, url, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	return req, nil
}

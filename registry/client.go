package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 10
	DefaultMaxIdleConnsPerHost = 5
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second

	// CacheBustParam is the query parameter carrying the cache-busting stamp.
	CacheBustParam = "t"
)

// FetchError reports a registry document request that completed with a
// non-success HTTP status.
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound reports whether err is a FetchError with status 404.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

// Client fetches the shared registry document over HTTP.
type Client struct {
	documentURL string
	client      *http.Client
	now         func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets a custom HTTP request timeout.
// Zero or negative values fall back to the default timeout (15 seconds).
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithClock overrides the time source used for cache-busting stamps.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a client for the registry document at documentURL.
func NewClient(documentURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	c := &Client{
		documentURL: strings.TrimSpace(documentURL),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DocumentURL returns the registry document URL without cache busting.
func (c *Client) DocumentURL() string {
	return c.documentURL
}

// FetchDocument performs a no-cache GET of the registry document and returns
// the raw body. When bustCache is set a `t=<unix millis>` query parameter is
// appended so intermediaries cannot serve a stale copy.
func (c *Client) FetchDocument(ctx context.Context, bustCache bool) ([]byte, error) {
	target, err := c.requestURL(bustCache)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode, URL: c.documentURL}
	}

	return io.ReadAll(resp.Body)
}

// requestURL builds the document URL, optionally with a cache-busting stamp.
func (c *Client) requestURL(bustCache bool) (string, error) {
	if c.documentURL == "" {
		return "", errors.New("registry document URL is empty")
	}
	if !bustCache {
		return c.documentURL, nil
	}

	u, err := url.Parse(c.documentURL)
	if err != nil {
		return "", fmt.Errorf("parse registry document URL: %w", err)
	}
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

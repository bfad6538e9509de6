package appregistry

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/albertocavalcante/go-appregistry/registry"
	"github.com/albertocavalcante/go-appregistry/storage"
)

// DefaultDocumentURL is the shared registry document, relative to the portal.
// Being relative, it leaves a registry offline until WithDocumentURL supplies
// an absolute URL.
const DefaultDocumentURL = "data/app-links.json"

// DefaultTimeout bounds the network fetch.
const DefaultTimeout = 15 * time.Second

// Option configures a Registry.
type Option func(*config) error

// config holds all registry configuration.
type config struct {
	documentURL string
	offline     bool
	bustCache   bool
	storage     storage.Storage
	bundled     *BundledSource
	defaults    []RawEntry
	defaultMeta registry.Metadata
	httpClient  *http.Client
	timeout     time.Duration
	sink        ArtifactSink
	now         func() time.Time

	// logger is the structured logger for diagnostics.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// WithDocumentURL sets the location of the shared registry document.
// Only absolute http(s) URLs are fetched; an empty, relative or file:// URL
// implies offline mode.
func WithDocumentURL(u string) Option {
	return func(c *config) error {
		c.documentURL = u
		return nil
	}
}

// WithOffline skips the network source entirely.
func WithOffline(offline bool) Option {
	return func(c *config) error {
		c.offline = offline
		return nil
	}
}

// WithCacheBusting controls the timestamp query parameter added to network
// fetches. It is on by default.
func WithCacheBusting(enabled bool) Option {
	return func(c *config) error {
		c.bustCache = enabled
		return nil
	}
}

// WithStorage sets where local overrides are read and saved.
func WithStorage(st storage.Storage) Option {
	return func(c *config) error {
		c.storage = st
		return nil
	}
}

// WithBundled sets in-memory bundled defaults, typically an embedded file.
// name selects the format: ".js" for a companion script, otherwise JSON.
func WithBundled(name string, data []byte) Option {
	return func(c *config) error {
		c.bundled = NewBundledSource(name, data)
		return nil
	}
}

// WithBundledFile sets a bundled defaults file read on every resolution.
func WithBundledFile(path string) Option {
	return func(c *config) error {
		if path == "" {
			return errors.New("bundled file path is empty")
		}
		c.bundled = NewBundledFile(path)
		return nil
	}
}

// WithDefaults sets the in-memory list used when every other source fails.
func WithDefaults(apps []RawEntry, meta registry.Metadata) Option {
	return func(c *config) error {
		c.defaults = apps
		c.defaultMeta = meta
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client for the network source.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		c.httpClient = client
		return nil
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.timeout = d
		return nil
	}
}

// WithSink sets where Export writes artifacts.
func WithSink(sink ArtifactSink) Option {
	return func(c *config) error {
		c.sink = sink
		return nil
	}
}

// WithClock overrides the time source used for export stamps and cache busting.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		c.now = now
		return nil
	}
}

// WithLogger sets a structured logger for registry diagnostics.
// If not set, logging is disabled (silent mode).
//
// zap users can bridge with slog.New(zapslog.NewHandler(core)).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *config) validate() error {
	if c.timeout < 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// isOffline reports whether the network source should be skipped: when asked
// to, or when the document URL cannot be fetched over HTTP (empty, relative
// or file://).
func (c *config) isOffline() bool {
	if c.offline || c.documentURL == "" {
		return true
	}
	u, err := url.Parse(strings.TrimSpace(c.documentURL))
	if err != nil {
		return true
	}
	return (u.Scheme != "http" && u.Scheme != "https") || u.Host == ""
}

func (c *config) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return discardLogger()
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{
		documentURL: DefaultDocumentURL,
		bustCache:   true,
		timeout:     DefaultTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// discardLogger returns a logger that drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

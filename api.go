// Package appregistry loads, edits, validates and exports the launcher
// registry of an offline-capable intranet portal.
//
// # Overview
//
// Entries come from several competing sources, tried in order until one
// succeeds:
//
//   - the shared registry document, fetched over HTTP
//   - local overrides saved by an administrator (see package storage)
//   - bundled defaults shipped with the portal (JSON or companion script)
//   - an in-memory default list
//
// A user may also import a document directly, bypassing the chain.
//
// Every source is normalized into the same canonical model: each Entry has a
// key, a label and exactly one Action (link, local, modal or disabled).
//
// # Quick Start
//
//	reg, err := appregistry.New(
//	    appregistry.WithDocumentURL("https://intranet.example/data/app-links.json"),
//	    appregistry.WithStorage(storage.NewFile(dir)),
//	    appregistry.WithBundledFile("scripts/default-apps.js"),
//	)
//	if err != nil { ... }
//	reg.Load(ctx)
//	for _, e := range reg.All() { ... }
//
// # Export
//
// Export validates the list and renders two correlated artifacts: a JSON
// document and a companion script assigning the same data to
// window.DEFAULT_APPS_META and window.DEFAULT_APPS. The script can be served
// back as bundled defaults.
//
// # Thread Safety
//
// All public types in this package are safe for concurrent use, except
// AdminModel, which belongs to a single editor.
package appregistry

import (
	"context"
	"io"

	"github.com/albertocavalcante/go-appregistry/registry"
)

// Registry wires a Store to its Resolver and Exporter.
type Registry struct {
	*Store

	resolver *Resolver
	exporter *Exporter
	bundled  *BundledSource
	cfg      *config
}

// New creates a registry. Nothing is loaded until Load is called; until then
// the store is empty with no provenance.
func New(opts ...Option) (*Registry, error) {
	c, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	logger := c.log()

	store := NewStore(c.storage, logger)

	var sources []Source
	if !c.isOffline() {
		clientOpts := []registry.ClientOption{registry.WithClock(c.now)}
		if c.httpClient != nil {
			clientOpts = append(clientOpts, registry.WithHTTPClient(c.httpClient))
		} else {
			clientOpts = append(clientOpts, registry.WithTimeout(c.timeout))
		}
		sources = append(sources, NewNetworkSource(registry.NewClient(c.documentURL, clientOpts...)))
	}
	sources = append(sources, NewOverrideSource(c.storage))
	if c.bundled != nil {
		sources = append(sources, c.bundled)
	}
	sources = append(sources, NewDefaultsSource(c.defaults, c.defaultMeta))

	resolver := NewResolver(store, sources, c.isOffline(), logger)
	resolver.bustCache = c.bustCache

	return &Registry{
		Store:    store,
		resolver: resolver,
		exporter: NewExporter(store, c.sink, c.now, logger),
		bundled:  c.bundled,
		cfg:      c,
	}, nil
}

// Load resolves the registry from the configured sources. It reports whether
// a substantive source was used rather than the in-memory defaults.
func (r *Registry) Load(ctx context.Context) bool {
	return r.resolver.Load(ctx)
}

// Reload clears the current advisory and resolves again.
func (r *Registry) Reload(ctx context.Context) bool {
	return r.resolver.Reload(ctx)
}

// Import replaces the registry with a user-supplied document.
func (r *Registry) Import(ctx context.Context, src io.Reader) error {
	return r.resolver.Import(ctx, src)
}

// Export validates entries (the current list when nil) and writes the two
// artifacts to the configured sink.
func (r *Registry) Export(ctx context.Context, entries []Entry) (*Bundle, error) {
	return r.exporter.Export(ctx, entries)
}

// Offline reports whether the network source is skipped.
func (r *Registry) Offline() bool {
	return r.resolver.Offline()
}

// Resolver returns the underlying resolver.
func (r *Registry) Resolver() *Resolver {
	return r.resolver
}

// Exporter returns the underlying exporter.
func (r *Registry) Exporter() *Exporter {
	return r.exporter
}

// Admin starts an admin editing session over the current contents.
func (r *Registry) Admin() *AdminModel {
	return NewAdminModel(r.Store)
}

// Watch reloads the registry whenever one of files changes, until ctx is
// done. The bundled file, if any, is always watched.
func (r *Registry) Watch(ctx context.Context, files ...string) error {
	if r.bundled != nil && r.bundled.Path() != "" {
		files = append(files, r.bundled.Path())
	}
	return NewWatcher(r.resolver, files, r.cfg.log()).Run(ctx)
}

package appregistry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/go-appregistry/registry"
	"github.com/albertocavalcante/go-appregistry/storage"
)

// FetchOptions are passed to every Source during a resolution.
type FetchOptions struct {
	// BustCache asks network sources to defeat intermediate caches.
	BustCache bool
}

// Source is one strategy in the resolution chain.
//
// Fetch returns ErrSourceUnavailable (possibly wrapped) when the source has
// nothing to offer; any other error is a failure that is recorded before the
// chain moves on.
type Source interface {
	Provenance() Provenance
	Fetch(ctx context.Context, opts FetchOptions) (*Payload, error)
}

// Compile-time interface compliance checks
var (
	_ Source = (*NetworkSource)(nil)
	_ Source = (*OverrideSource)(nil)
	_ Source = (*BundledSource)(nil)
	_ Source = (*DefaultsSource)(nil)
)

// NetworkSource reads the shared registry document over HTTP.
type NetworkSource struct {
	client *registry.Client
}

// NewNetworkSource creates a source backed by client.
func NewNetworkSource(client *registry.Client) *NetworkSource {
	return &NetworkSource{client: client}
}

// Provenance returns ProvenanceNetwork.
func (s *NetworkSource) Provenance() Provenance { return ProvenanceNetwork }

// Location returns the document URL, for user-facing messages.
func (s *NetworkSource) Location() string { return s.client.DocumentURL() }

// Fetch downloads and parses the document. HTTP failures, transport errors
// and malformed bodies are all reported as errors.
func (s *NetworkSource) Fetch(ctx context.Context, opts FetchOptions) (*Payload, error) {
	data, err := s.client.FetchDocument(ctx, opts.BustCache)
	if err != nil {
		return nil, err
	}
	p, err := DecodePayload(data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// OverrideSource reads overrides previously saved with Store.SaveToLocal.
type OverrideSource struct {
	storage storage.Storage
	key     string
}

// NewOverrideSource creates a source reading storage.DefaultKey from st.
func NewOverrideSource(st storage.Storage) *OverrideSource {
	return &OverrideSource{storage: st, key: storage.DefaultKey}
}

// Provenance returns ProvenanceLocalOverride.
func (s *OverrideSource) Provenance() Provenance { return ProvenanceLocalOverride }

// Fetch reads and parses the saved override. A missing or empty value is
// ErrSourceUnavailable.
func (s *OverrideSource) Fetch(ctx context.Context, _ FetchOptions) (*Payload, error) {
	if s.storage == nil {
		return nil, ErrSourceUnavailable
	}
	data, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read local overrides: %w", err)
	}
	if !ok || len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrSourceUnavailable
	}
	p, err := DecodePayload(data)
	if err != nil {
		return nil, fmt.Errorf("invalid local overrides: %w", err)
	}
	return &p, nil
}

// BundledSource reads defaults compiled into the binary or shipped next to
// it. Files ending in ".js" are companion script documents (see
// registry.EncodeScript); anything else is a JSON registry document.
type BundledSource struct {
	name string
	data []byte
	path string
}

// NewBundledSource creates a source over in-memory content, typically an
// embedded file. name selects the format by extension.
func NewBundledSource(name string, data []byte) *BundledSource {
	return &BundledSource{name: name, data: data}
}

// NewBundledFile creates a source that reads path on every fetch, so edits
// to the file are picked up by the next resolution.
func NewBundledFile(path string) *BundledSource {
	return &BundledSource{name: filepath.Base(path), path: path}
}

// Provenance returns ProvenanceBundled.
func (s *BundledSource) Provenance() Provenance { return ProvenanceBundled }

// Path returns the backing file, or "" for in-memory content.
func (s *BundledSource) Path() string { return s.path }

// Fetch parses the bundled content. Missing content is ErrSourceUnavailable.
func (s *BundledSource) Fetch(ctx context.Context, _ FetchOptions) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := s.data
	if s.path != "" {
		var err error
		data, err = os.ReadFile(s.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, ErrSourceUnavailable
			}
			return nil, fmt.Errorf("read bundled registry: %w", err)
		}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrSourceUnavailable
	}

	if strings.EqualFold(filepath.Ext(s.name), ".js") {
		return s.fetchScript(data)
	}
	p, err := DecodePayload(data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// fetchScript reads the two script bindings. An array of entries is paired
// with the metadata binding; an object is parsed as a whole document.
func (s *BundledSource) fetchScript(data []byte) (*Payload, error) {
	bindings, err := registry.DecodeScript(s.name, data)
	if err != nil {
		return nil, err
	}

	switch apps := bindings.Apps.(type) {
	case []any:
		meta, _ := bindings.Meta.(map[string]any)
		return &Payload{
			Apps: rawEntriesFromValue(apps),
			Meta: metadataFromValue(meta),
		}, nil
	case map[string]any:
		p := ParsePayload(apps)
		return &p, nil
	default:
		return nil, ErrSourceUnavailable
	}
}

// DefaultsSource is the last resort: a list held in memory. It always
// succeeds, possibly with an empty list.
type DefaultsSource struct {
	apps []RawEntry
	meta registry.Metadata
}

// NewDefaultsSource creates the in-memory fallback.
func NewDefaultsSource(apps []RawEntry, meta registry.Metadata) *DefaultsSource {
	return &DefaultsSource{apps: apps, meta: meta}
}

// Provenance returns ProvenanceDefaults.
func (s *DefaultsSource) Provenance() Provenance { return ProvenanceDefaults }

// Fetch returns a copy of the configured list.
func (s *DefaultsSource) Fetch(context.Context, FetchOptions) (*Payload, error) {
	apps := make([]RawEntry, len(s.apps))
	copy(apps, s.apps)
	return &Payload{Apps: apps, Meta: s.meta}, nil
}

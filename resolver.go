package appregistry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-appregistry/registry"
)

// Resolver decides which source supplies the registry and installs the
// result in a Store.
//
// Sources are tried strictly in order and the first success wins:
//
//  1. network document (skipped when offline)
//  2. local override storage
//  3. bundled defaults
//  4. in-memory defaults (always succeeds)
//
// A network failure is recorded as a user-facing advisory and carried forward
// into whichever fallback succeeds. Failures of the other sources are logged
// and skipped. Every path ends in a valid, possibly empty, registry.
//
// At most one resolution runs at a time. Concurrent Loads share the
// in-flight result, as do concurrent Reloads; a Reload arriving during a Load
// waits for it and then resolves again. Import waits for any resolution.
type Resolver struct {
	store     *Store
	sources   []Source
	offline   bool
	bustCache bool
	logger    *slog.Logger

	group singleflight.Group
	mu    sync.Mutex // serializes resolutions and imports

	// imported is set by a successful Import and cleared by a successful
	// network load. While set, fetch failures do not raise the warning.
	imported bool
}

// Singleflight keys. Loads share one flight and reloads another, so a
// Reload never settles for the result of a Load that started before it.
const (
	loadKey   = "load"
	reloadKey = "reload"
)

// NewResolver creates a resolver over sources, in precedence order. A
// DefaultsSource with an empty list is appended if sources does not end
// with one.
func NewResolver(store *Store, sources []Source, offline bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = discardLogger()
	}
	chain := make([]Source, 0, len(sources)+1)
	chain = append(chain, sources...)
	if len(chain) == 0 || chain[len(chain)-1].Provenance() != ProvenanceDefaults {
		chain = append(chain, NewDefaultsSource(nil, registry.Metadata{}))
	}
	return &Resolver{
		store:     store,
		sources:   chain,
		offline:   offline,
		bustCache: true,
		logger:    logger,
	}
}

// Offline reports whether the network source is skipped.
func (r *Resolver) Offline() bool {
	return r.offline
}

// Sources returns the resolution chain in precedence order.
func (r *Resolver) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Load resolves the registry and reports whether a substantive source
// (network, local override or bundled defaults) was used. It returns only
// after the store holds the final result.
func (r *Resolver) Load(ctx context.Context) bool {
	return r.do(ctx, false)
}

// Reload clears the current advisory and resolves again, forcing a fresh
// network attempt unless running offline.
func (r *Resolver) Reload(ctx context.Context) bool {
	return r.do(ctx, true)
}

func (r *Resolver) do(ctx context.Context, reload bool) bool {
	key := loadKey
	if reload {
		key = reloadKey
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if reload {
			r.store.clearError()
		}
		return r.resolve(ctx), nil
	})
	return v.(bool)
}

// resolve walks the chain. Callers hold r.mu.
func (r *Resolver) resolve(ctx context.Context) bool {
	r.logger.Debug("registry load start", "offline", r.offline)

	var (
		advisory    string
		fetchFailed bool
		note        string
	)
	if r.offline {
		note = NoteOffline
	}
	opts := FetchOptions{BustCache: r.bustCache}

	for _, src := range r.sources {
		prov := src.Provenance()
		if prov == ProvenanceNetwork && r.offline {
			continue
		}

		p, err := src.Fetch(ctx, opts)
		if err != nil {
			if errors.Is(err, ErrSourceUnavailable) {
				r.logger.Debug("registry source unavailable", "source", prov)
				continue
			}
			if prov == ProvenanceNetwork {
				advisory = networkAdvisory(src)
				fetchFailed = true
				r.logger.Error("shared registry document failed", "error", err)
			} else {
				r.logger.Warn("registry source failed", "source", prov, "error", err)
			}
			continue
		}

		st := Status{
			Source: prov,
			Error:  advisory,
			Note:   noteFor(prov, note),
			Warn:   fetchFailed && !r.imported,
		}
		if prov == ProvenanceNetwork {
			r.imported = false
		}
		r.install(p, st)
		return prov != ProvenanceDefaults
	}

	// Unreachable with a trailing DefaultsSource; kept so the store is never
	// left unresolved.
	r.install(&Payload{}, Status{Source: ProvenanceDefaults, Error: advisory, Note: note})
	return false
}

// Import replaces the registry with a user-supplied document, bypassing the
// resolution chain. A document that does not parse is rejected with
// ErrInvalidImport and the store is left unchanged.
func (r *Resolver) Import(ctx context.Context, src io.Reader) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	p, err := DecodePayload(data)
	if err != nil {
		r.logger.Error("registry import rejected", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.install(&p, Status{Source: ProvenanceUserImport})
	r.imported = true
	return nil
}

// install normalizes p into the store and logs what changed.
func (r *Resolver) install(p *Payload, st Status) {
	before := r.store.Document(nil)
	entries := p.Normalized()
	r.store.apply(entries, p.Meta, st)

	r.logger.Info("registry resolved", "source", st.Source, "count", len(entries))

	d := DiffRegistries(before, Document{Metadata: p.Meta, Apps: entries})
	r.logger.Debug("registry diff",
		"added", len(d.Added),
		"removed", len(d.Removed),
		"changed", len(d.Changed))
}

func noteFor(prov Provenance, incoming string) string {
	switch prov {
	case ProvenanceNetwork:
		return ""
	case ProvenanceLocalOverride:
		return NoteLocalOverride
	case ProvenanceBundled:
		return firstNonEmpty(incoming, NoteOffline)
	default:
		return incoming
	}
}

func networkAdvisory(src Source) string {
	location := "the shared registry document"
	if ns, ok := src.(*NetworkSource); ok && ns.Location() != "" {
		location = ns.Location()
	}
	return fmt.Sprintf("Unable to load %s. Confirm the file exists next to BASE and try Reload links.", location)
}

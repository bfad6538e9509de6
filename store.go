package appregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/albertocavalcante/go-appregistry/registry"
	"github.com/albertocavalcante/go-appregistry/storage"
)

// Provenance names the source that last supplied the registry's contents.
type Provenance string

// Provenance values. ProvenanceNone means nothing has been resolved yet.
const (
	ProvenanceNone          Provenance = ""
	ProvenanceNetwork       Provenance = "network"
	ProvenanceLocalOverride Provenance = "local-override"
	ProvenanceBundled       Provenance = "bundled"
	ProvenanceDefaults      Provenance = "in-memory-default"
	ProvenanceUserImport    Provenance = "user-import"
)

// Notes attached to the status by the resolver and the store.
const (
	NoteLocalOverride = "Using local overrides."
	NoteOffline       = "Using offline bundled registry."
)

// Status describes where the current registry came from.
// It is replaced wholesale on every resolution, never merged.
type Status struct {
	Source Provenance `json:"source"`

	// Error is a user-facing advisory, typically the network failure that
	// forced a fallback. Empty when nothing went wrong.
	Error string `json:"error,omitempty"`

	// Note is a user-facing annotation such as NoteLocalOverride.
	Note string `json:"note,omitempty"`

	// Warn asks the UI to show the "registry unavailable" warning. It is
	// suppressed after a successful user import.
	Warn bool `json:"warn,omitempty"`
}

// Snapshot is an immutable view of the store handed to observers.
type Snapshot struct {
	Entries []Entry
	Meta    registry.Metadata
	Status  Status
}

// Observer is notified after every mutation of the store.
type Observer func(Snapshot)

// MetaPatch lists metadata fields to overwrite; nil fields are left alone.
type MetaPatch struct {
	Version   *string
	Updated   *string
	UpdatedBy *string
}

// AppSpec describes a new entry for AddApp.
type AppSpec struct {
	Label  string
	Href   string
	Icon   string
	Action *RawAction
}

// AppPatch lists entry fields to overwrite; nil fields are left alone.
// A nil Action re-normalizes the entry's current action.
type AppPatch struct {
	Label  *string
	Href   *string
	Icon   *string
	Action *RawAction
}

// SetAllOptions controls SetAll.
type SetAllOptions struct {
	// Silent suppresses observer notification. The admin model uses it when
	// writing back edits it has already rendered.
	Silent bool
}

// Store holds the canonical entry list, the registry metadata and the
// provenance status for one session.
//
// All methods are safe for concurrent use. Readers receive copies; observers
// are called after the lock is released, in subscription order.
type Store struct {
	mu        sync.RWMutex
	entries   []Entry
	meta      registry.Metadata
	status    Status
	observers []observerSlot
	nextID    int

	storage    storage.Storage
	storageKey string
	logger     *slog.Logger
}

type observerSlot struct {
	id int
	fn Observer
}

// NewStore creates an empty store. Overrides are saved to st under
// storage.DefaultKey; st may be nil, in which case SaveToLocal always fails.
// A nil logger disables logging.
func NewStore(st storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = discardLogger()
	}
	return &Store{
		entries:    []Entry{},
		storage:    st,
		storageKey: storage.DefaultKey,
		logger:     logger,
	}
}

// Subscribe registers an observer. The returned function unregisters it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observerSlot{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// All returns a copy of the entry list in display order.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Meta returns a copy of the registry metadata.
func (s *Store) Meta() registry.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Status returns a copy of the provenance status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns a consistent copy of entries, metadata and status.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SetMeta overwrites the metadata fields set in p and notifies observers.
func (s *Store) SetMeta(p MetaPatch) {
	s.mutate(func() bool {
		if p.Version != nil {
			s.meta.Version = *p.Version
		}
		if p.Updated != nil {
			s.meta.Updated = *p.Updated
		}
		if p.UpdatedBy != nil {
			s.meta.UpdatedBy = *p.UpdatedBy
		}
		return true
	})
}

// AddApp normalizes spec into a new entry, appends it and notifies
// observers. It returns the entry as stored.
//
// The key is derived from the label. A blank label is stored as given so
// that Validate reports it before export.
func (s *Store) AddApp(spec AppSpec) Entry {
	e := NormalizeEntry(RawEntry{
		Key:    Slug(firstNonEmpty(spec.Label, "app")),
		Label:  spec.Label,
		Icon:   spec.Icon,
		Href:   spec.Href,
		Action: spec.Action,
	})
	if strings.TrimSpace(spec.Label) == "" {
		e.Label = spec.Label
	}
	s.mutate(func() bool {
		s.entries = append(s.entries, e)
		return true
	})
	return e
}

// UpdateApp merges p into the entry at index and re-normalizes its action.
// An out-of-range index is a no-op and returns false.
//
// A patched empty Href becomes "#". When only Href changes on a link entry
// whose URL tracked the old Href, the URL follows the new Href.
func (s *Store) UpdateApp(index int, p AppPatch) bool {
	return s.mutate(func() bool {
		if index < 0 || index >= len(s.entries) {
			return false
		}
		cur := s.entries[index]

		label := cur.Label
		if p.Label != nil {
			label = *p.Label
		}
		href := cur.Href
		if p.Href != nil {
			href = firstNonEmpty(*p.Href, "#")
		}
		icon := cur.Icon
		if p.Icon != nil {
			icon = *p.Icon
		}

		raw := p.Action
		if raw == nil {
			raw = RawActionOf(cur.Action)
			if link, ok := cur.Action.(LinkAction); ok && p.Href != nil && link.URL == cur.Href {
				raw.URL = href
			}
		}

		s.entries[index] = Entry{
			Key:    cur.Key,
			Label:  label,
			Icon:   icon,
			Href:   href,
			Action: NormalizeAction(raw, label, cur.Key, href),
		}
		return true
	})
}

// RemoveAt deletes the entry at index. An out-of-range index is a no-op and
// returns false.
func (s *Store) RemoveAt(index int) bool {
	return s.mutate(func() bool {
		if index < 0 || index >= len(s.entries) {
			return false
		}
		s.entries = append(s.entries[:index:index], s.entries[index+1:]...)
		return true
	})
}

// SetAll replaces the entry list with the canonical form of entries.
func (s *Store) SetAll(entries []Entry, opts SetAllOptions) {
	next := Canonicalize(entries)
	if opts.Silent {
		s.mu.Lock()
		s.entries = next
		s.mu.Unlock()
		return
	}
	s.mutate(func() bool {
		s.entries = next
		return true
	})
	s.logger.Debug("registry replaced", "count", len(next))
}

// Document builds the canonical payload for entries, or for the store's own
// entries when entries is nil.
func (s *Store) Document(entries []Entry) Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entries == nil {
		entries = s.entries
	}
	return newDocument(s.meta, entries)
}

// SaveToLocal writes the canonical payload for entries (the store's own
// entries when nil) to override storage. On success the status becomes
// local-override and observers are notified. Failures are logged and
// reported as false; they never panic or propagate.
func (s *Store) SaveToLocal(ctx context.Context, entries []Entry) bool {
	if err := s.saveToLocal(ctx, entries); err != nil {
		s.logger.Warn("unable to save local overrides", "error", err)
		return false
	}
	return true
}

func (s *Store) saveToLocal(ctx context.Context, entries []Entry) error {
	if s.storage == nil {
		return ErrNoStorage
	}

	doc := s.Document(entries)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := s.storage.Put(ctx, s.storageKey, data); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}

	s.mutate(func() bool {
		s.status = Status{Source: ProvenanceLocalOverride, Note: NoteLocalOverride}
		return true
	})
	s.logger.Info("saved local overrides", "count", len(doc.Apps))
	return nil
}

// apply installs a resolved payload and status atomically, then notifies.
func (s *Store) apply(entries []Entry, meta registry.Metadata, st Status) {
	s.mutate(func() bool {
		s.entries = entries
		s.meta = meta
		s.status = st
		return true
	})
}

// clearError drops the advisory from the current status without notifying.
func (s *Store) clearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Error = ""
}

// stampMeta fills unset Updated/Version fields and notifies if anything changed.
func (s *Store) stampMeta(updated, version string) {
	s.mutate(func() bool {
		changed := false
		if s.meta.Updated == "" && updated != "" {
			s.meta.Updated = updated
			changed = true
		}
		if s.meta.Version == "" && version != "" {
			s.meta.Version = version
			changed = true
		}
		return changed
	})
}

// mutate runs fn under the write lock and, if fn reports a change, notifies
// observers with a snapshot taken before the lock was released.
func (s *Store) mutate(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	var (
		snap      Snapshot
		observers []Observer
	)
	if changed {
		snap = s.snapshotLocked()
		observers = make([]Observer, 0, len(s.observers))
		for _, o := range s.observers {
			observers = append(observers, o.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
	return changed
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Entries: cloneEntries(s.entries),
		Meta:    s.meta,
		Status:  s.status,
	}
}

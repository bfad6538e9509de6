package appregistry

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SourceLabel returns the human-readable name of a provenance, as shown in
// the admin "Loaded:" badge.
func SourceLabel(p Provenance) string {
	switch p {
	case ProvenanceNone:
		return "Defaults"
	case ProvenanceNetwork:
		return "Shared registry"
	case ProvenanceLocalOverride:
		return "Local override"
	case ProvenanceBundled:
		return "Bundled defaults"
	case ProvenanceDefaults:
		return "Built-in list"
	case ProvenanceUserImport:
		return "Imported file"
	default:
		return string(p)
	}
}

// AppForm is the admin add/edit form.
type AppForm struct {
	// Key selects the entry to edit. Empty adds a new entry.
	Key   string
	Label string
	Href  string

	// Icon replaces the current icon. When empty on an edit, the existing
	// icon is kept.
	Icon string
}

// AdminModel is the admin table's working copy of the registry.
//
// Edits apply to the model and are written back to the store silently, so
// the table is not re-rendered from under the editor. Every entry in the
// model carries a link action; other action kinds are converted on load.
type AdminModel struct {
	store   *Store
	entries []Entry
	source  Provenance
}

// NewAdminModel snapshots store into a new working model.
func NewAdminModel(store *Store) *AdminModel {
	m := &AdminModel{store: store}
	m.Refresh()
	return m
}

// Refresh discards the working copy and snapshots the store again.
func (m *AdminModel) Refresh() {
	snap := m.store.Snapshot()
	m.entries = make([]Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		if e.Key == "" {
			e.Key = m.generateKey(e.Label)
		}
		m.entries = append(m.entries, modelEntry(e))
	}
	m.source = snap.Status.Source
}

// Entries returns a copy of the working list.
func (m *AdminModel) Entries() []Entry {
	return cloneEntries(m.entries)
}

// Get returns the entry with key.
func (m *AdminModel) Get(key string) (Entry, bool) {
	if i := m.index(key); i >= 0 {
		return m.entries[i], true
	}
	return Entry{}, false
}

// SourceLabel names where the snapshot came from.
func (m *AdminModel) SourceLabel() string {
	return SourceLabel(m.source)
}

// Upsert adds or edits an entry from form input and returns its key.
// The label is required and the URL must pass ValidateURL.
func (m *AdminModel) Upsert(f AppForm) (string, error) {
	label := strings.TrimSpace(f.Label)
	href := strings.TrimSpace(f.Href)
	if label == "" {
		return "", ErrLabelRequired
	}
	if err := ValidateURL(href); err != nil {
		return "", err
	}
	icon := strings.TrimSpace(f.Icon)

	if f.Key != "" {
		i := m.index(f.Key)
		if i < 0 {
			return "", fmt.Errorf("%w: %q", ErrUnknownKey, f.Key)
		}
		cur := m.entries[i]
		cur.Label = label
		cur.Href = href
		if icon != "" {
			cur.Icon = icon
		}
		cur.Action = linkFor(cur.Action, label, href)
		m.entries[i] = modelEntry(cur)
		m.sync()
		return cur.Key, nil
	}

	key := m.generateKey(label)
	m.entries = append(m.entries, modelEntry(Entry{
		Key:   key,
		Label: label,
		Icon:  icon,
		Href:  href,
		Action: LinkAction{
			URL:    href,
			Target: DefaultTarget,
			Rel:    DefaultRel,
			Title:  openLabel(label),
		},
	}))
	m.sync()
	return key, nil
}

// SetURL changes the URL of the entry with key, as the inline table editor does.
func (m *AdminModel) SetURL(key, rawURL string) error {
	href := strings.TrimSpace(rawURL)
	if err := ValidateURL(href); err != nil {
		return err
	}
	i := m.index(key)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	e := m.entries[i]
	e.Href = href
	e.Action = linkFor(e.Action, e.Label, href)
	m.entries[i] = modelEntry(e)
	m.sync()
	return nil
}

// Remove deletes the entry with key.
func (m *AdminModel) Remove(key string) error {
	i := m.index(key)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	m.entries = append(m.entries[:i:i], m.entries[i+1:]...)
	m.sync()
	return nil
}

// Save persists the working list as the local override.
func (m *AdminModel) Save(ctx context.Context) bool {
	ok := m.store.SaveToLocal(ctx, m.entries)
	if ok {
		m.source = ProvenanceLocalOverride
	}
	return ok
}

// Export exports the working list with x.
func (m *AdminModel) Export(ctx context.Context, x *Exporter) (*Bundle, error) {
	return x.Export(ctx, m.Entries())
}

func (m *AdminModel) sync() {
	m.store.SetAll(m.entries, SetAllOptions{Silent: true})
}

func (m *AdminModel) index(key string) int {
	for i, e := range m.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// generateKey derives a key from label that is not yet used in the model,
// appending a short random suffix on collision.
func (m *AdminModel) generateKey(label string) string {
	base := strings.Trim(nonKeyChars.ReplaceAllString(strings.ToLower(firstNonEmpty(label, "app")), "-"), "-")
	if base == "" {
		base = "app"
	}
	key := base
	for m.index(key) >= 0 {
		key = base + "-" + uuid.NewString()[:4]
	}
	return key
}

// modelEntry coerces an entry into the admin model's shape: labelled, with
// Href mirroring a link action.
func modelEntry(e Entry) Entry {
	e.Label = firstNonEmpty(e.Label, "Application")
	href := e.Href
	if link, ok := e.Action.(LinkAction); ok {
		href = firstNonEmpty(link.URL, e.Href)
	}
	e.Href = href
	e.Action = linkFor(e.Action, e.Label, href)
	return e
}

// linkFor returns a link action to href, keeping presentation fields of cur
// when it is already a link.
func linkFor(cur Action, label, href string) LinkAction {
	link, _ := cur.(LinkAction)
	link.URL = href
	link.Target = firstNonEmpty(link.Target, DefaultTarget)
	link.Rel = firstNonEmpty(link.Rel, DefaultRel)
	link.Title = firstNonEmpty(link.Title, openLabel(label))
	link.AriaLabel = firstNonEmpty(link.AriaLabel, openLabel(label))
	return link
}

// IconDataURI encodes an uploaded icon as a data: URI suitable for
// Entry.Icon. The media type comes from the file extension, falling back to
// content sniffing.
func IconDataURI(name string, data []byte) string {
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

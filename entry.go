package appregistry

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

// Entry is one canonical application launcher.
type Entry struct {
	// Key identifies the entry within the registry.
	Key string `json:"key"`

	// Label is the display name.
	Label string `json:"label"`

	// Icon is a path or data URI. Empty means the renderer draws a fallback glyph.
	Icon string `json:"icon"`

	// Href is a flat best-effort URL for consumers that ignore Action.
	Href string `json:"href"`

	// Action is never nil on a normalized entry.
	Action Action `json:"action"`
}

// UnmarshalJSON decodes an entry leniently and normalizes it, so decoded
// entries are always canonical.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	raw, ok := RawEntryFromValue(v)
	if !ok {
		return errors.New("registry entry must be a JSON object")
	}
	*e = NormalizeEntry(raw)
	return nil
}

// RawEntry is an application record as found in input documents.
// Every field is optional; URL is an alias for Href.
type RawEntry struct {
	Key    string
	Label  string
	Icon   string
	Href   string
	URL    string
	Action *RawAction
}

// RawEntryFromValue reads a decoded JSON value as a RawEntry.
// Returns false for anything other than an object.
func RawEntryFromValue(v any) (RawEntry, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return RawEntry{}, false
	}
	return RawEntry{
		Key:    stringField(m, "key"),
		Label:  stringField(m, "label"),
		Icon:   stringField(m, "icon"),
		Href:   stringField(m, "href"),
		URL:    stringField(m, "url"),
		Action: rawActionFromValue(m["action"]),
	}, true
}

// RawEntryOf converts a canonical entry back to its raw form.
func RawEntryOf(e Entry) RawEntry {
	return RawEntry{
		Key:    e.Key,
		Label:  e.Label,
		Icon:   e.Icon,
		Href:   e.Href,
		Action: RawActionOf(e.Action),
	}
}

// NormalizeEntry canonicalizes a single raw record.
func NormalizeEntry(r RawEntry) Entry {
	label := firstNonEmpty(r.Label, "App")
	key := firstNonEmpty(r.Key, Slug(label))
	href := firstNonEmpty(r.Href, r.URL, "#")
	return Entry{
		Key:    key,
		Label:  label,
		Icon:   r.Icon,
		Href:   href,
		Action: NormalizeAction(r.Action, label, key, href),
	}
}

// Normalize canonicalizes raw records, preserving their order.
// The result is never nil.
func Normalize(raws []RawEntry) []Entry {
	out := make([]Entry, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizeEntry(r))
	}
	return out
}

// NormalizeValue canonicalizes a decoded JSON value. Non-array input yields
// an empty list; array elements that are not objects are dropped.
func NormalizeValue(v any) []Entry {
	return Normalize(rawEntriesFromValue(v))
}

// Canonicalize re-normalizes entries that may have been edited in place.
// It is the identity on entries that are already canonical.
func Canonicalize(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, NormalizeEntry(RawEntryOf(e)))
	}
	return out
}

// Slug derives a key from a label: lower-cased, with every run of
// whitespace replaced by a single hyphen.
func Slug(label string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func rawEntriesFromValue(v any) []RawEntry {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]RawEntry, 0, len(items))
	for _, item := range items {
		if raw, ok := RawEntryFromValue(item); ok {
			out = append(out, raw)
		}
	}
	return out
}

// cloneEntries copies a slice of entries. Actions are value types, so a
// slice copy is a deep copy.
func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

package appregistry

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/r3labs/diff/v3"
)

// EntryRef identifies an added or removed entry in a registry diff.
type EntryRef struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FieldChange is one changed field of an entry present on both sides.
type FieldChange struct {
	// Field is the changed field, e.g. "label" or "action.url".
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// EntryChange lists the field changes of one entry.
type EntryChange struct {
	Key    string        `json:"key"`
	Fields []FieldChange `json:"fields"`
}

// VersionChange is set when the registry version moved.
type VersionChange struct {
	Old string `json:"old"`
	New string `json:"new"`

	// Direction is "upgrade", "downgrade" or "changed" when either side is
	// not a comparable version.
	Direction string `json:"direction"`
}

// RegistryDiff describes the differences between two registry documents.
//
// Entries are matched by key. Results are sorted by key for stable output.
type RegistryDiff struct {
	Added   []EntryRef     `json:"added,omitempty"`
	Removed []EntryRef     `json:"removed,omitempty"`
	Changed []EntryChange  `json:"changed,omitempty"`
	Version *VersionChange `json:"version,omitempty"`
}

// IsEmpty returns true if the documents have the same entries and version.
func (d *RegistryDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0 &&
		d.Version == nil
}

// TotalChanges returns the number of added, removed and changed entries.
func (d *RegistryDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Changed)
}

// flatEntry is the comparable projection of an Entry.
type flatEntry struct {
	Label     string `diff:"label"`
	Icon      string `diff:"icon"`
	Href      string `diff:"href"`
	Type      string `diff:"action.type"`
	URL       string `diff:"action.url"`
	Target    string `diff:"action.target"`
	Rel       string `diff:"action.rel"`
	Path      string `diff:"action.path"`
	RelPath   string `diff:"action.relPath"`
	ModalID   string `diff:"action.modalId"`
	Title     string `diff:"action.title"`
	AriaLabel string `diff:"action.ariaLabel"`
}

func flatten(e Entry) flatEntry {
	f := flatEntry{Label: e.Label, Icon: e.Icon, Href: e.Href}
	if raw := RawActionOf(e.Action); raw != nil {
		f.Type = raw.Type
		f.URL = raw.URL
		f.Target = raw.Target
		f.Rel = raw.Rel
		f.Path = raw.Path
		f.RelPath = raw.RelPath
		f.ModalID = raw.ModalID
		f.Title = raw.Title
		f.AriaLabel = raw.AriaLabel
	}
	return f
}

// DiffRegistries computes the difference between two documents.
// When a key appears more than once, the first occurrence is compared.
func DiffRegistries(old, new Document) *RegistryDiff {
	d := &RegistryDiff{}

	oldByKey := indexByKey(old.Apps)
	newByKey := indexByKey(new.Apps)

	for key, ne := range newByKey {
		oe, existed := oldByKey[key]
		if !existed {
			d.Added = append(d.Added, EntryRef{Key: key, Label: ne.Label})
			continue
		}
		changelog, err := diff.Diff(flatten(oe), flatten(ne))
		if err != nil || len(changelog) == 0 {
			continue
		}
		ch := EntryChange{Key: key}
		for _, c := range changelog {
			ch.Fields = append(ch.Fields, FieldChange{
				Field: strings.Join(c.Path, "."),
				From:  c.From,
				To:    c.To,
			})
		}
		sort.Slice(ch.Fields, func(i, j int) bool {
			return ch.Fields[i].Field < ch.Fields[j].Field
		})
		d.Changed = append(d.Changed, ch)
	}

	for key, oe := range oldByKey {
		if _, exists := newByKey[key]; !exists {
			d.Removed = append(d.Removed, EntryRef{Key: key, Label: oe.Label})
		}
	}

	sortRefs(d.Added)
	sortRefs(d.Removed)
	sort.Slice(d.Changed, func(i, j int) bool {
		return d.Changed[i].Key < d.Changed[j].Key
	})

	d.Version = compareVersions(old.Version, new.Version)
	return d
}

func compareVersions(oldV, newV string) *VersionChange {
	if oldV == newV {
		return nil
	}
	vc := &VersionChange{Old: oldV, New: newV, Direction: "changed"}
	a, errA := version.NewVersion(oldV)
	b, errB := version.NewVersion(newV)
	if errA != nil || errB != nil {
		return vc
	}
	switch b.Compare(a) {
	case 1:
		vc.Direction = "upgrade"
	case -1:
		vc.Direction = "downgrade"
	default:
		// "v2025.02.14" and "2025.2.14" compare equal
		return nil
	}
	return vc
}

func indexByKey(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if _, dup := m[e.Key]; !dup {
			m[e.Key] = e
		}
	}
	return m
}

func sortRefs(refs []EntryRef) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Key < refs[j].Key
	})
}

package appregistry

import (
	"encoding/json"
	"fmt"
)

// ActionType tags the variant of an Action.
type ActionType string

// Supported action variants.
const (
	ActionLink     ActionType = "link"
	ActionLocal    ActionType = "local"
	ActionModal    ActionType = "modal"
	ActionDisabled ActionType = "disabled"
)

// Link defaults.
const (
	DefaultTarget     = "_blank"
	DefaultRel        = "noopener noreferrer"
	placeholderPrefix = "https://placeholder.local/"
)

// Action describes what activating a launcher tile does.
// It is a closed set: LinkAction, LocalAction, ModalAction and DisabledAction.
type Action interface {
	// Type returns the variant tag used on the wire.
	Type() ActionType

	isAction()
}

// LinkAction opens a URL.
type LinkAction struct {
	URL       string `json:"url"`
	Target    string `json:"target"`
	Rel       string `json:"rel"`
	Title     string `json:"title"`
	AriaLabel string `json:"ariaLabel"`
}

// LocalAction opens a file on the local machine, falling back to a path
// relative to the portal.
type LocalAction struct {
	Path      string `json:"path"`
	RelPath   string `json:"relPath"`
	Title     string `json:"title"`
	AriaLabel string `json:"ariaLabel"`
}

// ModalAction opens an in-page dialog.
type ModalAction struct {
	ModalID   string `json:"modalId"`
	Title     string `json:"title"`
	AriaLabel string `json:"ariaLabel"`
}

// DisabledAction renders an inert tile.
type DisabledAction struct {
	Title     string `json:"title"`
	AriaLabel string `json:"ariaLabel"`
}

func (LinkAction) Type() ActionType     { return ActionLink }
func (LocalAction) Type() ActionType    { return ActionLocal }
func (ModalAction) Type() ActionType    { return ActionModal }
func (DisabledAction) Type() ActionType { return ActionDisabled }

func (LinkAction) isAction()     {}
func (LocalAction) isAction()    {}
func (ModalAction) isAction()    {}
func (DisabledAction) isAction() {}

// The wire form of every action is its fields plus a "type" tag.

func (a LinkAction) MarshalJSON() ([]byte, error) {
	type plain LinkAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionLink, plain(a)})
}

func (a LocalAction) MarshalJSON() ([]byte, error) {
	type plain LocalAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionLocal, plain(a)})
}

func (a ModalAction) MarshalJSON() ([]byte, error) {
	type plain ModalAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionModal, plain(a)})
}

func (a DisabledAction) MarshalJSON() ([]byte, error) {
	type plain DisabledAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionDisabled, plain(a)})
}

// RawAction is an action descriptor as found in input documents, before
// normalization. Every field is optional.
//
// Rel doubles as an alias for RelPath on local actions.
type RawAction struct {
	Type      string
	URL       string
	Target    string
	Rel       string
	Path      string
	RelPath   string
	ModalID   string
	Title     string
	AriaLabel string
}

// rawActionFromValue reads a decoded JSON value as a RawAction.
// Anything other than an object yields nil, which normalizes the same way as
// a missing action.
func rawActionFromValue(v any) *RawAction {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &RawAction{
		Type:      stringField(m, "type"),
		URL:       stringField(m, "url"),
		Target:    stringField(m, "target"),
		Rel:       stringField(m, "rel"),
		Path:      stringField(m, "path"),
		RelPath:   stringField(m, "relPath"),
		ModalID:   stringField(m, "modalId"),
		Title:     stringField(m, "title"),
		AriaLabel: stringField(m, "ariaLabel"),
	}
}

// RawActionOf converts a canonical action back to its raw descriptor.
// NormalizeAction(RawActionOf(a), ...) returns a for any canonical a.
func RawActionOf(a Action) *RawAction {
	switch v := a.(type) {
	case LinkAction:
		return &RawAction{Type: string(ActionLink), URL: v.URL, Target: v.Target, Rel: v.Rel, Title: v.Title, AriaLabel: v.AriaLabel}
	case LocalAction:
		return &RawAction{Type: string(ActionLocal), Path: v.Path, RelPath: v.RelPath, Title: v.Title, AriaLabel: v.AriaLabel}
	case ModalAction:
		return &RawAction{Type: string(ActionModal), ModalID: v.ModalID, Title: v.Title, AriaLabel: v.AriaLabel}
	case DisabledAction:
		return &RawAction{Type: string(ActionDisabled), Title: v.Title, AriaLabel: v.AriaLabel}
	default:
		return nil
	}
}

// NormalizeAction canonicalizes a raw action descriptor for the entry
// identified by label and key. It never fails.
//
//   - nil: a link to href, or to a placeholder URL derived from key
//   - "" or "link": a link preferring raw.URL over href
//   - "local", "modal": fields passed through, title defaults to label
//   - "disabled": title and aria label default to "<label> coming soon"
//   - any other type: treated as a link to href
func NormalizeAction(raw *RawAction, label, key, href string) Action {
	if raw == nil {
		return defaultLink(label, href, nil, key)
	}

	switch ActionType(raw.Type) {
	case "", ActionLink:
		return defaultLink(label, firstNonEmpty(raw.URL, href), raw, key)

	case ActionLocal:
		return LocalAction{
			Path:      raw.Path,
			RelPath:   firstNonEmpty(raw.RelPath, raw.Rel),
			Title:     firstNonEmpty(raw.Title, label),
			AriaLabel: firstNonEmpty(raw.AriaLabel, openLabel(label)),
		}

	case ActionModal:
		return ModalAction{
			ModalID:   raw.ModalID,
			Title:     firstNonEmpty(raw.Title, label),
			AriaLabel: firstNonEmpty(raw.AriaLabel, openLabel(label)),
		}

	case ActionDisabled:
		soon := fmt.Sprintf("%s coming soon", label)
		return DisabledAction{
			Title:     firstNonEmpty(raw.Title, soon),
			AriaLabel: firstNonEmpty(raw.AriaLabel, soon),
		}

	default:
		// Unknown variants degrade to a plain link on the entry's href.
		return defaultLink(label, href, raw, key)
	}
}

// defaultLink builds a link action, keeping any presentation fields present
// on existing.
func defaultLink(label, href string, existing *RawAction, key string) LinkAction {
	if existing == nil {
		existing = &RawAction{}
	}
	if key == "" {
		key = "app"
	}
	return LinkAction{
		URL:       firstNonEmpty(href, existing.URL, placeholderPrefix+key),
		Target:    firstNonEmpty(existing.Target, DefaultTarget),
		Rel:       firstNonEmpty(existing.Rel, DefaultRel),
		Title:     firstNonEmpty(existing.Title, label),
		AriaLabel: firstNonEmpty(existing.AriaLabel, openLabel(label)),
	}
}

func openLabel(label string) string {
	return "Open " + label
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// stringField returns m[key] if it is a string, "" otherwise.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

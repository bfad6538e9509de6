package registry

// Metadata describes a registry document as a whole.
// An empty string means the field is unset; the fields are never absent.
type Metadata struct {
	// Version is a free-form registry version such as "v2025.02.14".
	Version string `json:"version"`

	// Updated is the ISO-8601 timestamp of the last export.
	Updated string `json:"updated"`

	// UpdatedBy names whoever produced the document.
	UpdatedBy string `json:"updatedBy"`
}

// IsZero reports whether every field is unset.
func (m Metadata) IsZero() bool {
	return m.Version == "" && m.Updated == "" && m.UpdatedBy == ""
}

// Names of the top-level bindings assigned by the companion script document.
const (
	ScriptMetaBinding = "window.DEFAULT_APPS_META"
	ScriptAppsBinding = "window.DEFAULT_APPS"
)

// Well-known document field names.
const (
	FieldApps  = "apps"
	FieldItems = "items"
	FieldMeta  = "meta"
)

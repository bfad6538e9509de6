package appregistry

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"

	"github.com/albertocavalcante/go-appregistry/registry"
)

// Payload is the result of parsing a registry document: the raw records and
// the registry metadata. It has not been normalized yet.
type Payload struct {
	Apps []RawEntry
	Meta registry.Metadata
}

// Document is the canonical registry payload: the layout of the exported
// JSON artifact and of the local override value.
type Document struct {
	registry.Metadata
	Apps []Entry `json:"apps"`
}

// ParsePayload extracts records and metadata from any decoded JSON value.
// It never fails: shapes it does not recognise produce an empty payload.
//
//   - bare array: the array is the record list, metadata is empty
//   - object: "apps" array, else "items" array, else empty; metadata comes from
//     the "meta" object when present, otherwise from top-level fields
func ParsePayload(v any) Payload {
	switch p := v.(type) {
	case []any:
		return Payload{Apps: rawEntriesFromValue(p)}

	case map[string]any:
		var list any
		if apps, ok := p[registry.FieldApps].([]any); ok {
			list = apps
		} else if items, ok := p[registry.FieldItems].([]any); ok {
			list = items
		}

		info := p
		switch meta := p[registry.FieldMeta].(type) {
		case map[string]any:
			info = meta
		case []any:
			info = nil
		}

		return Payload{
			Apps: rawEntriesFromValue(list),
			Meta: metadataFromValue(info),
		}

	default:
		return Payload{}
	}
}

// DecodePayload parses a registry document. Comments and trailing commas are
// tolerated so hand-edited files load; only syntax errors are reported.
func DecodePayload(data []byte) (Payload, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Payload{}, fmt.Errorf("parse registry document: %w", err)
	}

	var v any
	if err := json.Unmarshal(std, &v); err != nil {
		return Payload{}, fmt.Errorf("parse registry document: %w", err)
	}
	return ParsePayload(v), nil
}

// Normalized returns the payload's records in canonical form.
func (p Payload) Normalized() []Entry {
	return Normalize(p.Apps)
}

func metadataFromValue(m map[string]any) registry.Metadata {
	return registry.Metadata{
		Version:   stringField(m, "version"),
		Updated:   stringField(m, "updated"),
		UpdatedBy: stringField(m, "updatedBy"),
	}
}

// newDocument builds a canonical document from metadata and a deep copy of
// entries.
func newDocument(meta registry.Metadata, entries []Entry) Document {
	return Document{
		Metadata: meta,
		Apps:     cloneEntries(entries),
	}
}

package registry

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema accepts every shape the payload parser understands: a bare
// entry array, or an object carrying "apps" or "items" plus optional metadata.
// It is looser than the export format: no field is required.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "action": {
      "type": "object",
      "properties": {
        "type": { "enum": ["link", "local", "modal", "disabled"] },
        "url": { "type": "string" },
        "target": { "type": "string" },
        "rel": { "type": "string" },
        "path": { "type": "string" },
        "relPath": { "type": "string" },
        "modalId": { "type": "string" },
        "title": { "type": "string" },
        "ariaLabel": { "type": "string" }
      }
    },
    "entry": {
      "type": "object",
      "properties": {
        "key": { "type": "string" },
        "label": { "type": "string" },
        "icon": { "type": "string" },
        "href": { "type": "string" },
        "url": { "type": "string" },
        "action": { "$ref": "#/definitions/action" }
      }
    },
    "entries": { "type": "array", "items": { "$ref": "#/definitions/entry" } },
    "meta": {
      "type": "object",
      "properties": {
        "version": { "type": "string" },
        "updated": { "type": "string" },
        "updatedBy": { "type": "string" }
      }
    }
  },
  "oneOf": [
    { "$ref": "#/definitions/entries" },
    {
      "type": "object",
      "properties": {
        "apps": { "$ref": "#/definitions/entries" },
        "items": { "$ref": "#/definitions/entries" },
        "meta": { "$ref": "#/definitions/meta" },
        "version": { "type": "string" },
        "updated": { "type": "string" },
        "updatedBy": { "type": "string" }
      }
    }
  ]
}`

// SchemaValidator checks raw registry documents against the document schema.
type SchemaValidator struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

// NewSchemaValidator creates a validator for registry documents.
// The schema is compiled lazily on first use.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

func (v *SchemaValidator) compiled() (*gojsonschema.Schema, error) {
	v.once.Do(func() {
		v.schema, v.err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return v.schema, v.err
}

// ValidateDocument validates JSON data against the registry document schema.
// Returns nil if valid, or ValidationErrors containing all issues found.
func (v *SchemaValidator) ValidateDocument(data []byte) error {
	schema, err := v.compiled()
	if err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &FieldError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	var errs ValidationErrors
	for _, re := range result.Errors() {
		errs.Add(re.Field(), re.Description())
	}
	return errs.ToError()
}

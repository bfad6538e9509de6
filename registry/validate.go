package registry

import (
	"fmt"
	"strings"
)

// FieldError is one problem found while checking a registry document or
// entry list. Field names the entry ("Row 3", "Wiki") or document path
// ("apps.2.label"); it may be empty for document-wide problems.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors accumulates every problem found in one pass, in the
// order they were found, so an editor can fix them all at once.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return e.Errors[0].Error()
	}
	lines := make([]string, 0, len(e.Errors)+1)
	lines = append(lines, fmt.Sprintf("%d validation errors:", len(e.Errors)))
	for _, fe := range e.Errors {
		lines = append(lines, "  - "+fe.Error())
	}
	return strings.Join(lines, "\n")
}

// Unwrap exposes each FieldError to errors.As.
func (e *ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe)
	}
	return out
}

// Add records a problem with field.
func (e *ValidationErrors) Add(field, message string) {
	e.AddError(&FieldError{Field: field, Message: message})
}

// AddError records fe.
func (e *ValidationErrors) AddError(fe *FieldError) {
	e.Errors = append(e.Errors, fe)
}

// HasErrors reports whether anything was recorded.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) != 0
}

// Messages renders each recorded problem as "<field>: <message>".
func (e *ValidationErrors) Messages() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Error()
	}
	return out
}

// ToError returns e, or nil when nothing was recorded.
func (e *ValidationErrors) ToError() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

package registry

import (
	"errors"
	"testing"
)

func TestSchemaValidator_ValidateDocument(t *testing.T) {
	v := NewSchemaValidator()

	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name:    "bare array",
			json:    `[{"label": "Intranet", "href": "https://intra"}]`,
			wantErr: false,
		},
		{
			name: "export format",
			json: `{
				"version": "v2025.02.14",
				"updated": "2025-02-14T09:30:00.000Z",
				"updatedBy": "",
				"apps": [
					{
						"key": "intranet",
						"label": "Intranet",
						"icon": "icons/intranet.svg",
						"href": "https://intra",
						"action": {"type": "link", "url": "https://intra", "target": "_blank"}
					}
				]
			}`,
			wantErr: false,
		},
		{
			name:    "legacy items with meta",
			json:    `{"meta": {"version": "1"}, "items": [{"label": "Wiki", "url": "wiki/home"}]}`,
			wantErr: false,
		},
		{
			name:    "empty object",
			json:    `{}`,
			wantErr: false,
		},
		{
			name:    "unknown action type",
			json:    `[{"label": "X", "action": {"type": "teleport"}}]`,
			wantErr: true,
		},
		{
			name:    "numeric label",
			json:    `{"apps": [{"label": 42}]}`,
			wantErr: true,
		},
		{
			name:    "apps is not an array",
			json:    `{"apps": "nope"}`,
			wantErr: true,
		},
		{
			name:    "scalar document",
			json:    `"apps"`,
			wantErr: true,
		},
		{
			name:    "syntax error",
			json:    `{"apps": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDocument([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocument() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaValidator_ReportsFields(t *testing.T) {
	v := NewSchemaValidator()
	err := v.ValidateDocument([]byte(`{"apps": [{"label": 1, "icon": 2}]}`))
	if err == nil {
		t.Fatal("expected error")
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error %T is not *ValidationErrors", err)
	}
	if len(verrs.Errors) == 0 {
		t.Fatal("expected at least one field error")
	}
	for _, fe := range verrs.Errors {
		if fe.Message == "" {
			t.Errorf("field error %q has no message", fe.Field)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	errs := &ValidationErrors{}
	if errs.HasErrors() {
		t.Error("new ValidationErrors should be empty")
	}
	if errs.ToError() != nil {
		t.Error("ToError() should be nil when empty")
	}

	errs.Add("Row 1", "missing name/label.")
	errs.AddError(&FieldError{Field: "Wiki", Message: "missing icon path."})
	errs.Add("", "bare message")

	want := []string{
		"Row 1: missing name/label.",
		"Wiki: missing icon path.",
		"bare message",
	}
	got := errs.Messages()
	if len(got) != len(want) {
		t.Fatalf("Messages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Messages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if errs.ToError() == nil {
		t.Fatal("ToError() should not be nil")
	}
	var fe *FieldError
	if !errors.As(errs.ToError(), &fe) || fe.Field != "Row 1" {
		t.Errorf("errors.As should find the first FieldError, got %v", fe)
	}
}

func TestValidationErrors_ErrorString(t *testing.T) {
	single := &ValidationErrors{}
	single.Add("Row 2", "missing name/label.")
	if got := single.Error(); got != "Row 2: missing name/label." {
		t.Errorf("Error() = %q", got)
	}

	multi := &ValidationErrors{}
	multi.Add("A", "one")
	multi.Add("B", "two")
	if got, want := multi.Error(), "2 validation errors:\n  - A: one\n  - B: two"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

package appregistry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-appregistry/registry"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    []string
	}{
		{
			name: "valid",
			entries: []Entry{
				{Label: "A", Icon: "a.svg", Action: LinkAction{URL: "https://a"}},
				{Label: "B", Icon: "b.svg", Action: LocalAction{RelPath: "tools/b"}},
				{Label: "C", Icon: "c.svg", Action: ModalAction{ModalID: "c"}},
				{Label: "D", Icon: "d.svg", Href: "#", Action: DisabledAction{Title: "D coming soon"}},
			},
		},
		{
			name:    "empty list",
			entries: []Entry{},
		},
		{
			name:    "missing label only",
			entries: []Entry{{Label: "", Icon: "x.png", Action: LinkAction{URL: "https://a"}}},
			want:    []string{"Row 1: missing name/label."},
		},
		{
			name:    "blank label names the row",
			entries: []Entry{{Label: "   ", Icon: "", Action: LinkAction{URL: "https://a"}}},
			want:    []string{"Row 1: missing name/label.", "App 1: missing icon path."},
		},
		{
			name:    "missing icon and unresolvable action",
			entries: []Entry{{Label: "Wiki", Icon: " ", Action: ModalAction{}}},
			want:    []string{"Wiki: missing icon path.", "Wiki: missing link or action URL."},
		},
		{
			name: "errors accumulate in list order",
			entries: []Entry{
				{Label: "A", Icon: "a.svg", Action: LocalAction{}},
				{Label: "B", Icon: "b.svg", Action: LinkAction{URL: "https://b"}},
				{Label: "", Icon: "", Action: LinkAction{}},
			},
			want: []string{
				"A: missing link or action URL.",
				"Row 3: missing name/label.",
				"App 3: missing icon path.",
				"App 3: missing link or action URL.",
			},
		},
		{
			name:    "disabled entry without href",
			entries: []Entry{{Label: "D", Icon: "d.svg", Action: DisabledAction{}}},
			want:    []string{"D: missing link or action URL."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				v := Check(tt.entries)
				assert.True(t, v.Valid)
				assert.Empty(t, v.Errors)
				return
			}

			var verrs *registry.ValidationErrors
			require.True(t, errors.As(err, &verrs), "error %T is not *registry.ValidationErrors", err)
			assert.Equal(t, tt.want, verrs.Messages())

			v := Check(tt.entries)
			assert.False(t, v.Valid)
			assert.Equal(t, tt.want, v.Errors)
		})
	}
}

func TestEffectiveURL(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{Href: "h", Action: LinkAction{URL: "u"}}, "u"},
		{Entry{Href: "h", Action: LinkAction{}}, ""},
		{Entry{Action: LocalAction{Path: "/p", RelPath: "r"}}, "/p"},
		{Entry{Action: LocalAction{RelPath: "r"}}, "r"},
		{Entry{Action: ModalAction{ModalID: "m"}}, "m"},
		{Entry{Href: "h", Action: DisabledAction{}}, "h"},
		{Entry{Href: "h"}, "h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectiveURL(tt.entry), "%+v", tt.entry)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrURLRequired},
		{"https://intranet.example/path?q=1", nil},
		{"HTTP://INTRANET", nil},
		{"https://", ErrURLInvalidHTTP},
		{"http://bad host", ErrURLInvalidHTTP},
		{"wiki/home", nil},
		{"intranet.local", nil},
		{"tools/app.exe?x=1", nil},
		{"/absolute/path", ErrURLUnrecognized},
		{"ftp://files", ErrURLUnrecognized},
		{"mailto:ops@example.com", ErrURLUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateURL(tt.in))
		})
	}
	assert.Equal(t, "Enter a valid http(s) URL.", ErrURLInvalidHTTP.Error())
}

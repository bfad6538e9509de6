package appregistry

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/albertocavalcante/go-appregistry/registry"
)

// Validation is the result of Check.
type Validation struct {
	Valid  bool
	Errors []string
}

// Validate checks that every entry can be exported: it has a label, an icon
// and a resolvable URL. All problems are collected, in list order.
//
// It returns nil or a *registry.ValidationErrors whose fields name the entry
// ("Row N" for a missing label, the label or "App N" otherwise).
func Validate(entries []Entry) error {
	errs := &registry.ValidationErrors{}
	for i, e := range entries {
		row := i + 1
		name := e.Label
		if strings.TrimSpace(name) == "" {
			errs.Add(fmt.Sprintf("Row %d", row), "missing name/label.")
			name = fmt.Sprintf("App %d", row)
		}
		if strings.TrimSpace(e.Icon) == "" {
			errs.Add(name, "missing icon path.")
		}
		if EffectiveURL(e) == "" {
			errs.Add(name, "missing link or action URL.")
		}
	}
	return errs.ToError()
}

// Check runs Validate and flattens the result into messages.
func Check(entries []Entry) Validation {
	err := Validate(entries)
	if err == nil {
		return Validation{Valid: true, Errors: []string{}}
	}
	var verrs *registry.ValidationErrors
	if errors.As(err, &verrs) {
		return Validation{Errors: verrs.Messages()}
	}
	return Validation{Errors: []string{err.Error()}}
}

// EffectiveURL returns the target an entry resolves to: the link URL, the
// local path (or relative path), the modal id, or otherwise Href.
func EffectiveURL(e Entry) string {
	switch a := e.Action.(type) {
	case LinkAction:
		return a.URL
	case LocalAction:
		return firstNonEmpty(a.Path, a.RelPath)
	case ModalAction:
		return a.ModalID
	default:
		return e.Href
	}
}

// URL validation messages, shown verbatim next to admin form fields.
//
//nolint:staticcheck // ST1005: user-facing sentences
var (
	ErrURLRequired     = errors.New("URL is required.")
	ErrURLInvalidHTTP  = errors.New("Enter a valid http(s) URL.")
	ErrURLUnrecognized = errors.New("Enter http(s):// or internal host/path.")
)

var (
	httpSchemeRe   = regexp.MustCompile(`(?i)^https?://`)
	internalPathRe = regexp.MustCompile(`^[\w.-]+(/.*)?$`)
)

// ValidateURL checks a URL typed into an admin form. Absolute http(s) URLs
// must parse; anything else must look like an internal host or path such as
// "wiki/home".
func ValidateURL(s string) error {
	if s == "" {
		return ErrURLRequired
	}
	if httpSchemeRe.MatchString(s) {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return ErrURLInvalidHTTP
		}
		return nil
	}
	if internalPathRe.MatchString(s) {
		return nil
	}
	return ErrURLUnrecognized
}

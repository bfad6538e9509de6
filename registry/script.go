package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-appregistry/internal/literal"
)

// ScriptBindings holds the values assigned by a companion script document.
type ScriptBindings struct {
	// Meta is the value bound to ScriptMetaBinding, or nil if absent.
	Meta any

	// Apps is the value bound to ScriptAppsBinding, or nil if absent.
	Apps any

	// HasApps reports whether the apps binding was present at all.
	HasApps bool
}

// MarshalIndent renders v as two-space indented JSON without HTML escaping,
// matching the layout of the exported documents.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeScript renders the companion script document: one assignment of the
// metadata object literal and one of the entry array literal.
//
//	window.DEFAULT_APPS_META = {...};
//
//	window.DEFAULT_APPS = [...];
func EncodeScript(meta Metadata, apps any) ([]byte, error) {
	metaJSON, err := MarshalIndent(meta)
	if err != nil {
		return nil, fmt.Errorf("encode script metadata: %w", err)
	}
	appsJSON, err := MarshalIndent(apps)
	if err != nil {
		return nil, fmt.Errorf("encode script entries: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s = %s;\n\n", ScriptMetaBinding, metaJSON)
	fmt.Fprintf(&buf, "%s = %s;\n", ScriptAppsBinding, appsJSON)
	return buf.Bytes(), nil
}

// DecodeScript reads a companion script document produced by EncodeScript
// (or written by hand in the same style). Both the `window.`-qualified and
// the bare binding names are recognised.
func DecodeScript(filename string, data []byte) (*ScriptBindings, error) {
	f, err := build.ParseDefault(filename, stripTerminators(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	assigns := literal.Assignments(f)
	out := &ScriptBindings{}

	if expr, ok := lookupBinding(assigns, ScriptMetaBinding); ok {
		out.Meta, err = literal.Value(expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", filename, ScriptMetaBinding, err)
		}
	}
	if expr, ok := lookupBinding(assigns, ScriptAppsBinding); ok {
		out.Apps, err = literal.Value(expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", filename, ScriptAppsBinding, err)
		}
		out.HasApps = true
	}
	return out, nil
}

func lookupBinding(assigns map[string]build.Expr, name string) (build.Expr, bool) {
	if expr, ok := assigns[name]; ok {
		return expr, true
	}
	expr, ok := assigns[strings.TrimPrefix(name, "window.")]
	return expr, ok
}

// stripTerminators drops statement-ending semicolons at the end of a line.
// JSON string literals never span lines, so a trailing ';' is always a
// terminator.
func stripTerminators(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		trimmed := bytes.TrimRight(line, " \t\r")
		if bytes.HasSuffix(trimmed, []byte(";")) {
			lines[i] = trimmed[:len(trimmed)-1]
		}
	}
	return bytes.Join(lines, []byte("\n"))
}

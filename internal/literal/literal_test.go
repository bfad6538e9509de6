package literal

import (
	"testing"

	"github.com/bazelbuild/buildtools/build"
	"github.com/google/go-cmp/cmp"
)

func parseRHS(t *testing.T, content string) build.Expr {
	t.Helper()
	f, err := build.ParseDefault("test.js", []byte("x = "+content+"\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	assigns := Assignments(f)
	expr, ok := assigns["x"]
	if !ok {
		t.Fatal("no assignment parsed")
	}
	return expr
}

func TestValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"string", `"hello"`, "hello"},
		{"integer", `42`, float64(42)},
		{"float", `1.5`, 1.5},
		{"negative", `-3`, float64(-3)},
		{"json true", `true`, true},
		{"starlark False", `False`, false},
		{"json null", `null`, nil},
		{"empty list", `[]`, []any{}},
		{"list", `["a", 1]`, []any{"a", float64(1)}},
		{
			name:  "nested dict",
			input: `{"label": "Wiki", "action": {"type": "link", "url": "wiki/home"}, "tags": [null]}`,
			want: map[string]any{
				"label":  "Wiki",
				"action": map[string]any{"type": "link", "url": "wiki/home"},
				"tags":   []any{nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(parseRHS(t, tt.input))
			if err != nil {
				t.Fatalf("Value() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Value() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValue_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"call", `f(1)`},
		{"identifier", `undefined`},
		{"int key", `{1: "a"}`},
		{"negated string", `-"a"`},
		{"binary op", `1 + 2`},
		{"nested error", `[{"a": g()}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Value(parseRHS(t, tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAssignments(t *testing.T) {
	src := `
window.DEFAULT_APPS_META = {"version": "v1"}
window.DEFAULT_APPS = []
plain = "x"
plain = "y"
counter += 1
print("ignored")
`
	f, err := build.ParseDefault("defaults.js", []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := Assignments(f)

	for _, name := range []string{"window.DEFAULT_APPS_META", "window.DEFAULT_APPS", "plain"} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing assignment %q", name)
		}
	}
	if _, ok := got["counter"]; ok {
		t.Error("augmented assignment should be ignored")
	}
	if len(got) != 3 {
		t.Errorf("len(Assignments) = %d, want 3", len(got))
	}

	v, _ := Value(got["plain"])
	if v != "y" {
		t.Errorf("plain = %v, want the later assignment", v)
	}
}

func TestName(t *testing.T) {
	f, err := build.ParseDefault("n.js", []byte("a.b.c = 1\nf(x).y = 2\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	first := f.Stmt[0].(*build.AssignExpr)
	if got := Name(first.LHS); got != "a.b.c" {
		t.Errorf("Name() = %q, want a.b.c", got)
	}
	second := f.Stmt[1].(*build.AssignExpr)
	if got := Name(second.LHS); got != "" {
		t.Errorf("Name() = %q, want empty for call receiver", got)
	}
}

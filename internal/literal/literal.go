// Package literal converts buildtools AST nodes into plain Go values.
//
// The companion registry script is a pair of assignments whose right-hand
// sides are JSON literals. JSON arrays, objects, strings and numbers are also
// valid Starlark expressions, so the buildtools parser reads the file and this
// package turns the resulting expressions back into the values encoding/json
// would have produced: map[string]any, []any, string, float64, bool and nil.
package literal

import (
	"fmt"
	"strconv"

	"github.com/bazelbuild/buildtools/build"
)

// Value converts a build.Expr to a Go value.
// Handles strings, numbers, JSON and Starlark constants, lists and dicts.
// Any other expression (calls, comprehensions, operators) is an error.
func Value(expr build.Expr) (any, error) {
	switch e := expr.(type) {
	case *build.StringExpr:
		return e.Value, nil
	case *build.LiteralExpr:
		return number(e.Token)
	case *build.UnaryExpr:
		if e.Op != "-" && e.Op != "+" {
			return nil, fmt.Errorf("unsupported unary operator %q", e.Op)
		}
		v, err := Value(e.X)
		if err != nil {
			return nil, err
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("unary %q applied to non-number", e.Op)
		}
		if e.Op == "-" {
			f = -f
		}
		return f, nil
	case *build.Ident:
		switch e.Name {
		case "true", "True":
			return true, nil
		case "false", "False":
			return false, nil
		case "null", "None":
			return nil, nil
		default:
			return nil, fmt.Errorf("unsupported identifier %q", e.Name)
		}
	case *build.ListExpr:
		result := make([]any, 0, len(e.List))
		for _, item := range e.List {
			v, err := Value(item)
			if err != nil {
				return nil, err
			}
			result = append(result, v)
		}
		return result, nil
	case *build.DictExpr:
		result := make(map[string]any, len(e.List))
		for _, kv := range e.List {
			key, ok := kv.Key.(*build.StringExpr)
			if !ok {
				return nil, fmt.Errorf("dict key must be a string, got %T", kv.Key)
			}
			v, err := Value(kv.Value)
			if err != nil {
				return nil, err
			}
			result[key.Value] = v
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

// Name renders the left-hand side of an assignment as a dotted name.
// Returns "" for anything other than identifiers and attribute selections.
func Name(expr build.Expr) string {
	switch e := expr.(type) {
	case *build.Ident:
		return e.Name
	case *build.DotExpr:
		parent := Name(e.X)
		if parent == "" {
			return ""
		}
		return parent + "." + e.Name
	default:
		return ""
	}
}

// Assignments returns the right-hand side of every top-level `name = value`
// statement in f, keyed by the dotted name. Later assignments win.
func Assignments(f *build.File) map[string]build.Expr {
	out := make(map[string]build.Expr)
	for _, stmt := range f.Stmt {
		assign, ok := stmt.(*build.AssignExpr)
		if !ok || assign.Op != "=" {
			continue
		}
		if name := Name(assign.LHS); name != "" {
			out[name] = assign.RHS
		}
	}
	return out
}

func number(token string) (any, error) {
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number literal %q", token)
	}
	return f, nil
}

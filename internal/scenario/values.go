package scenario

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vango-dev/lazystate/pkg/tracker"
)

// FuncPrefix marks a string value that stands for a callable.
const FuncPrefix = "fn:"

// materialize replaces every "fn:<name>" string in v with a new closure
// returning name. Containers are copied only when something inside them
// was replaced, so untouched branches keep their identity.
func materialize(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		if name, ok := strings.CutPrefix(t, FuncPrefix); ok {
			return newFunc(name), true
		}
		return t, false
	case map[string]any:
		var out map[string]any
		for k, child := range t {
			next, changed := materialize(child)
			if !changed {
				continue
			}
			if out == nil {
				out = make(map[string]any, len(t))
				for k2, v2 := range t {
					out[k2] = v2
				}
			}
			out[k] = next
		}
		if out == nil {
			return t, false
		}
		return out, true
	case []any:
		var out []any
		for i, child := range t {
			next, changed := materialize(child)
			if !changed {
				continue
			}
			if out == nil {
				out = append([]any(nil), t...)
			}
			out[i] = next
		}
		if out == nil {
			return t, false
		}
		return out, true
	default:
		return v, false
	}
}

func materializeMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out, _ := materialize(m)
	return out.(map[string]any)
}

// newFunc returns a fresh closure. Every call yields a distinct identity.
func newFunc(name string) func() string {
	return func() string { return name }
}

// invoke calls a zero-argument func and returns its first result.
func invoke(fn any) (any, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%T is not callable", fn)
	}
	ft := rv.Type()
	if n := ft.NumIn(); n > 1 || (n == 1 && !ft.IsVariadic()) {
		return nil, fmt.Errorf("%s takes arguments", ft)
	}
	out := rv.Call(nil)
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// display converts v into something encoding/json accepts. Views are
// unwrapped without recording a read and funcs print as "fn".
func display(v any) any {
	if view, ok := v.(*tracker.View); ok {
		v = view.Peek()
	}
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = display(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = display(child)
		}
		return out
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "fn"
	}
	return v
}

// formatValue renders a displayed value on one line for terminal reports.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(t)
	}
}

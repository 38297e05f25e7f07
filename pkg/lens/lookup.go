package lens

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// ErrUnresolvable is returned when a path steps into a value that is not a
// container (nil, a primitive, or a func).
var ErrUnresolvable = errors.New("lens: path is not resolvable")

// LookupError reports where a path stopped resolving.
type LookupError struct {
	// Path is the prefix that resolved to a non-container value.
	Path Path

	// Key is the key that could not be applied.
	Key Key

	// Kind is the reflect kind found at Path ("invalid" for nil).
	Kind string
}

func (e *LookupError) Error() string {
	at := e.Path.String()
	if at == "" {
		at = "<root>"
	}
	return fmt.Sprintf("lens: cannot read key %s of %s value at %s", formatKey(e.Key), e.Kind, at)
}

// Unwrap makes errors.Is(err, ErrUnresolvable) hold.
func (e *LookupError) Unwrap() error {
	return ErrUnresolvable
}

// Kind classifies a value for tracking purposes.
type Kind uint8

const (
	// Terminal values are read directly: primitives, nil, nil pointers, channels.
	Terminal Kind = iota
	// Composite values have keys: maps, structs, slices and arrays.
	Composite
	// Callable values are non-nil funcs.
	Callable
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Composite:
		return "composite"
	case Callable:
		return "callable"
	default:
		return "terminal"
	}
}

// KindOf classifies value. Pointers and interfaces are looked through, so a
// *User is Composite while a nil *User is Terminal.
func KindOf(value any) Kind {
	return kindOfValue(indirect(reflect.ValueOf(value)))
}

func kindOfValue(v reflect.Value) Kind {
	if !v.IsValid() {
		return Terminal
	}
	switch v.Kind() {
	case reflect.Func:
		if v.IsNil() {
			return Terminal
		}
		return Callable
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return Composite
	}
	return Terminal
}

// indirect follows pointers and interfaces until it reaches a concrete value.
// A nil pointer or interface yields the zero Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// Step reads one key from container.
//
// A key that is absent from a container resolves to nil without error, the
// same way an unknown map key reads as the zero value. Stepping into a value
// that is not a container fails with an error wrapping ErrUnresolvable.
func Step(container any, key Key) (any, error) {
	v := indirect(reflect.ValueOf(container))
	if kindOfValue(v) != Composite {
		return nil, &LookupError{Key: key, Kind: kindName(v)}
	}

	if s, ok := key.(*Symbol); ok {
		switch s {
		case EmptyKey:
			return keyCount(v) == 0, nil
		case LenKey:
			return keyCount(v), nil
		}
	}

	switch v.Kind() {
	case reflect.Map:
		kv, ok := convertKey(key, v.Type().Key())
		if !ok {
			return nil, nil
		}
		e := v.MapIndex(kv)
		if !e.IsValid() {
			return nil, nil
		}
		return e.Interface(), nil

	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return nil, nil
		}
		f, ok := v.Type().FieldByName(name)
		if !ok || !f.IsExported() {
			return nil, nil
		}
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			// Nil embedded pointer on the way to a promoted field.
			return nil, nil
		}
		return fv.Interface(), nil

	case reflect.Slice, reflect.Array:
		i, ok := toIndex(key)
		if !ok || i < 0 || i >= v.Len() {
			return nil, nil
		}
		return v.Index(i).Interface(), nil
	}

	return nil, &LookupError{Key: key, Kind: kindName(v)}
}

// Get resolves path against root by applying Step for each key in order.
// An empty path returns root itself.
func Get(root any, path ...Key) (any, error) {
	cur := root
	for i, key := range path {
		next, err := Step(cur, key)
		if err != nil {
			var le *LookupError
			if errors.As(err, &le) {
				le.Path = append(Path(nil), path[:i]...)
			}
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Has reports whether container has key as an own key. Symbols are never own keys.
func Has(container any, key Key) bool {
	v := indirect(reflect.ValueOf(container))
	if kindOfValue(v) != Composite {
		return false
	}
	switch v.Kind() {
	case reflect.Map:
		kv, ok := convertKey(key, v.Type().Key())
		return ok && v.MapIndex(kv).IsValid()
	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return false
		}
		f, ok := v.Type().FieldByName(name)
		return ok && f.IsExported()
	default:
		i, ok := toIndex(key)
		return ok && i >= 0 && i < v.Len()
	}
}

// Keys returns the own keys of container. Map keys are ordered by their
// string form; struct fields keep declaration order.
func Keys(container any) []Key {
	v := indirect(reflect.ValueOf(container))
	if kindOfValue(v) != Composite {
		return nil
	}
	switch v.Kind() {
	case reflect.Map:
		keys := make([]Key, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.Interface())
		}
		sort.Slice(keys, func(i, j int) bool {
			return formatKey(keys[i]) < formatKey(keys[j])
		})
		return keys
	case reflect.Struct:
		var keys []Key
		for _, f := range reflect.VisibleFields(v.Type()) {
			if f.IsExported() && !f.Anonymous {
				keys = append(keys, f.Name)
			}
		}
		return keys
	default:
		keys := make([]Key, v.Len())
		for i := range keys {
			keys[i] = i
		}
		return keys
	}
}

// KeyCount returns the number of own keys of value. Non-containers have none.
func KeyCount(value any) int {
	v := indirect(reflect.ValueOf(value))
	if kindOfValue(v) != Composite {
		return 0
	}
	return keyCount(v)
}

// IsEmpty reports whether value has no own keys.
func IsEmpty(value any) bool {
	return KeyCount(value) == 0
}

func keyCount(v reflect.Value) int {
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return v.Len()
	case reflect.Struct:
		n := 0
		for _, f := range reflect.VisibleFields(v.Type()) {
			if f.IsExported() && !f.Anonymous {
				n++
			}
		}
		return n
	}
	return 0
}

func convertKey(key Key, kt reflect.Type) (reflect.Value, bool) {
	kv := reflect.ValueOf(key)
	if !kv.IsValid() {
		return reflect.Value{}, false
	}
	if kv.Type().AssignableTo(kt) {
		return kv, true
	}
	// Only convert within the same kind (named string types and the like);
	// int -> string conversion would yield a rune, not a decimal key.
	if kv.Kind() == kt.Kind() && kv.Type().ConvertibleTo(kt) {
		return kv.Convert(kt), true
	}
	if kt.Kind() == reflect.String {
		if i, ok := key.(int); ok {
			return reflect.ValueOf(strconv.Itoa(i)).Convert(kt), true
		}
	}
	return reflect.Value{}, false
}

func toIndex(key Key) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case int64:
		return int(k), true
	case int32:
		return int(k), true
	case uint:
		return int(k), true
	case string:
		i, err := strconv.Atoi(k)
		return i, err == nil
	}
	return 0, false
}

func kindName(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Kind().String()
}

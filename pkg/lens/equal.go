package lens

import (
	"reflect"
	"unsafe"
)

// Equality reports whether two states hold the same value at a bound location.
type Equality func(prev, next any) bool

// EqualAt returns an Equality bound to path.
//
// If the path cannot be resolved in either state (an intermediate container
// is missing), the check reports inequality: a state whose shape changed
// under an observed path is treated as changed.
func EqualAt(path ...Key) Equality {
	bound := append(Path(nil), path...)
	return func(prev, next any) bool {
		a, err := Get(prev, bound...)
		if err != nil {
			return false
		}
		b, err := Get(next, bound...)
		if err != nil {
			return false
		}
		return Same(a, b)
	}
}

// Same reports whether a and b are the same value: identical references for
// maps, slices, pointers, channels and funcs, equal values for primitives.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Func {
		// Compare closure identity rather than code pointers, which are
		// shared by every closure created from the same literal.
		return funcIdentity(a) == funcIdentity(b)
	}
	return sameValue(va, vb)
}

func sameValue(a, b reflect.Value) bool {
	if a.IsValid() != b.IsValid() {
		return false
	}
	if !a.IsValid() {
		return true
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a.UnsafePointer() == b.UnsafePointer()
	case reflect.Slice:
		return a.UnsafePointer() == b.UnsafePointer() && a.Len() == b.Len()
	case reflect.Func:
		if a.CanInterface() && b.CanInterface() {
			return funcIdentity(a.Interface()) == funcIdentity(b.Interface())
		}
		return a.UnsafePointer() == b.UnsafePointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	}
	return false
}

// eface mirrors the runtime layout of an empty interface.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// funcIdentity returns the closure pointer stored in an interface holding a
// func value. Distinct closures get distinct pointers even when they share code.
func funcIdentity(fn any) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&fn)).data
}

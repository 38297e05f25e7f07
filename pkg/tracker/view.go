package tracker

import (
	"reflect"

	"github.com/vango-dev/lazystate/pkg/lens"
)

// Notify receives the full path of a terminal read or a func invocation.
// The slice is owned by the callee and may be retained.
type Notify func(path ...lens.Key)

// Track wraps value so that reads through it are reported to notify.
//
//   - Callable values are wrapped in a func of the same type that reports
//     the path leading to the func, then forwards the call unchanged.
//   - Composite values (maps, structs, slices, arrays and pointers to them)
//     are returned as a *View.
//   - Anything else is a terminal value: notify fires immediately and the
//     value itself is returned.
func Track(value any, notify Notify) any {
	return track(value, nil, notify)
}

func track(value any, path lens.Path, notify Notify) any {
	switch lens.KindOf(value) {
	case lens.Callable:
		return wrapFunc(value, path, notify)
	case lens.Composite:
		return &View{target: value, path: path, notify: notify}
	default:
		fire(notify, path)
		return value
	}
}

func fire(notify Notify, path lens.Path) {
	if notify == nil {
		return
	}
	notify(append(lens.Path(nil), path...)...)
}

// wrapFunc returns a func with the same signature as fn that reports path
// before each call.
func wrapFunc(fn any, path lens.Path, notify Notify) any {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	wrapped := reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		fire(notify, path)
		if ft.IsVariadic() {
			return fv.CallSlice(args)
		}
		return fv.Call(args)
	})
	return wrapped.Interface()
}

// View is a read-through wrapper over a composite value.
//
// Reading a key returns a further View for composite values, a wrapped func
// for callables, and the plain value for terminals. Only terminal reads and
// calls are reported; walking through containers is free.
//
// A View never caches and never mutates the value it wraps.
type View struct {
	target any
	path   lens.Path
	notify Notify
}

// Get reads key. A key that does not exist reads as nil and is reported as
// a terminal read.
//
// Reading a key from a container that cannot hold keys panics with the
// lookup error; this cannot happen for views built by Track.
func (v *View) Get(key lens.Key) any {
	value, err := lens.Step(v.target, key)
	if err != nil {
		panic(err)
	}
	return track(value, v.path.Append(key), v.notify)
}

// At reads a sequence of keys, stepping through intermediate views.
// If an intermediate value is not a View the walk stops there and that
// value is returned.
func (v *View) At(keys ...lens.Key) any {
	var cur any = v
	for _, key := range keys {
		view, ok := cur.(*View)
		if !ok {
			return cur
		}
		cur = view.Get(key)
	}
	return cur
}

// Index reads element i of a slice or array.
func (v *View) Index(i int) any {
	return v.Get(i)
}

// Len reports the number of own keys and records the read.
func (v *View) Len() int {
	n, _ := v.Get(lens.LenKey).(int)
	return n
}

// Empty reports whether the container has no own keys and records the read.
func (v *View) Empty() bool {
	empty, _ := v.Get(lens.EmptyKey).(bool)
	return empty
}

// Load returns the wrapped value and records the view's own path as if it
// were a terminal read. Use it when a whole composite value is needed, such
// as a time.Time or a slice passed to another function.
func (v *View) Load() any {
	fire(v.notify, v.path)
	return v.target
}

// Peek returns the wrapped value without recording a read.
func (v *View) Peek() any {
	return v.target
}

// Has reports whether key exists. Existence checks are not recorded.
func (v *View) Has(key lens.Key) bool {
	return lens.Has(v.target, key)
}

// Keys returns the own keys of the wrapped value. Enumeration is not recorded.
func (v *View) Keys() []lens.Key {
	return lens.Keys(v.target)
}

// Path returns the path from the root to this view.
func (v *View) Path() lens.Path {
	return append(lens.Path(nil), v.path...)
}

// Value reads keys from v and asserts the result to T.
// The read is recorded exactly like Get. ok is false when the result is not a T.
func Value[T any](v *View, keys ...lens.Key) (T, bool) {
	out, ok := v.At(keys...).(T)
	return out, ok
}

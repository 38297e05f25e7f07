// Package lens locates and compares values inside structured state.
//
// A Path is an ordered list of keys. Keys are strings (map keys and struct
// field names), ints (slice and array indices), or *Symbol values for keys
// that have no natural string form:
//
//	p := lens.Path{"user", "address", "zip"}
//	zip, err := lens.Get(state, p...)
//
// EqualAt builds an equality check bound to one path. The check resolves the
// path in two states and reports whether the values are the Same:
//
//	eq := lens.EqualAt("user", "name")
//	changed := !eq(prev, next)
//
// # Equality
//
// Same compares by reference for maps, slices, pointers, channels and funcs,
// and by value for primitives. Structs and arrays are compared field by field
// using the same rules, so a struct holding a map is unchanged as long as it
// holds the same map.
package lens

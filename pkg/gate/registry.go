package gate

import "github.com/vango-dev/lazystate/pkg/lens"

// entry is one observed path and its equality check.
type entry struct {
	key   string
	path  lens.Path
	equal lens.Equality
}

// Registry maps observed paths to equality checks, keyed by the joined
// string form of each path. Entries keep the order in which a path was first
// registered; registering a path again replaces its check in place.
//
// A Registry is not safe for concurrent use. It belongs to one component
// instance and is only touched from that instance's render and update calls.
type Registry struct {
	index   map[string]int
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Set registers an equality check for path.
func (r *Registry) Set(path lens.Path, equal lens.Equality) {
	key := path.String()
	if i, ok := r.index[key]; ok {
		r.entries[i].path = path
		r.entries[i].equal = equal
		return
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, entry{key: key, path: path, equal: equal})
}

// Has reports whether path is registered.
func (r *Registry) Has(path lens.Path) bool {
	_, ok := r.index[path.String()]
	return ok
}

// Len returns the number of registered paths.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Keys returns the registered path strings in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.key
	}
	return keys
}

// Clear removes every entry.
func (r *Registry) Clear() {
	clear(r.index)
	r.entries = r.entries[:0]
}

// Evaluate runs the checks in registration order against prev and next and
// stops at the first one that reports a difference. It returns whether a
// difference was found, the path string where it was found, and the number
// of checks that ran.
func (r *Registry) Evaluate(prev, next any) (changed bool, at string, checked int) {
	for _, e := range r.entries {
		checked++
		if !e.equal(prev, next) {
			return true, e.key, checked
		}
	}
	return false, "", checked
}

package reactive

import "sync"

// Ref holds a mutable value that persists across renders. Writing a Ref
// never triggers a re-render.
//
// Ref[T] is safe for concurrent access.
type Ref[T any] struct {
	value T
	isSet bool
	mu    sync.RWMutex
}

// NewRef creates a detached Ref holding initial.
func NewRef[T any](initial T) *Ref[T] {
	return &Ref[T]{value: initial}
}

// UseRef returns the component's Ref for this hook position, creating it
// with initial on the first render. Later renders ignore initial.
//
// This is a hook and must be called unconditionally during render.
func UseRef[T any](initial T) *Ref[T] {
	owner := hookOwner(HookRef)
	return useSlot(owner, HookRef, func() *Ref[T] {
		return NewRef(initial)
	})
}

// Current returns the current value of the ref.
func (r *Ref[T]) Current() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set replaces the ref's value.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
	r.isSet = true
}

// IsSet returns true once Set has been called.
func (r *Ref[T]) IsSet() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isSet
}

// Clear resets the ref to its zero value.
func (r *Ref[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.value = zero
	r.isSet = false
}

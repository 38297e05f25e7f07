package reactive

import (
	"sync"

	"github.com/vango-dev/lazystate/pkg/lens"
)

type stateCell[T any] struct {
	mu    sync.RWMutex
	value T
	owner *Owner
	set   func(T)
}

func (c *stateCell[T]) get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *stateCell[T]) store(next T) {
	c.mu.Lock()
	if lens.Same(c.value, next) {
		c.mu.Unlock()
		return
	}
	c.value = next
	c.mu.Unlock()
	c.owner.Invalidate()
}

// UseState returns the component's state value for this hook position and a
// setter. Calling the setter with a value that is not lens.Same as the
// current one stores it and invalidates the component.
//
// The setter is the same func on every render.
//
// This is a hook and must be called unconditionally during render.
func UseState[T any](initial T) (T, func(T)) {
	owner := hookOwner(HookState)
	cell := useSlot(owner, HookState, func() *stateCell[T] {
		c := &stateCell[T]{value: initial, owner: owner}
		c.set = c.store
		return c
	})
	return cell.get(), cell.set
}

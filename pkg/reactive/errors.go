package reactive

import (
	"errors"
	"fmt"
)

// ErrNoOwner is the panic value (wrapped) when a hook is called outside a
// component render.
var ErrNoOwner = errors.New("reactive: hook called outside component render")

// ErrHookSlotMismatch is the panic value (wrapped) when a hook slot holds
// state of a different type than the hook expects, which happens when hooks
// are called conditionally.
var ErrHookSlotMismatch = errors.New("reactive: hook slot type mismatch")

// hookOwner returns the rendering owner and records the hook call.
// It panics with ErrNoOwner outside a render.
func hookOwner(ht HookType) *Owner {
	owner := CurrentOwner()
	if owner == nil || !owner.Rendering() {
		panic(fmt.Errorf("%w: %s", ErrNoOwner, ht))
	}
	owner.TrackHook(ht)
	return owner
}

// useSlot returns the hook state stored in the owner's current slot, or
// creates it with create on the first render.
func useSlot[S any](owner *Owner, ht HookType, create func() S) S {
	if slot := owner.UseHookSlot(); slot != nil {
		s, ok := slot.(S)
		if !ok {
			panic(fmt.Errorf("%w: %s hook found %T", ErrHookSlotMismatch, ht, slot))
		}
		return s
	}
	s := create()
	owner.SetHookSlot(s)
	return s
}

// Package reactive is a small host runtime for hook-based components.
//
// A Component mounts a render function. While it renders, hooks keep their
// state in the component's Owner, one slot per hook call:
//
//	c := reactive.NewComponent(func() {
//	    count, setCount := reactive.UseState(0)
//	    ref := reactive.UseRef("")       // persists, never re-renders
//	    label := reactive.UseMemo(func() string {
//	        return strconv.Itoa(count)
//	    }, count)                        // recomputed when count changes
//	    ...
//	})
//	c.Render()
//
// Setting state invalidates the owner, which marks the component dirty and
// calls its scheduler. Flush renders dirty components.
//
// # Hook Order
//
// Hooks are matched to their state by call order, so they must be called
// unconditionally. Set DebugMode to panic when the order changes between
// renders.
//
// # Thread Safety
//
// The current owner is tracked per goroutine. Renders of one component are
// serialized; hook state setters may be called from any goroutine.
package reactive

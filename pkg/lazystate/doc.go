// Package lazystate holds component state that re-renders only when a part
// of it that was read during the last render changes.
//
// Reading the state through the tracked view subscribes the component to
// the paths it reads, for the current cycle only. Paths are forgotten at the
// start of the next render, so a component that reads a key conditionally
// stops depending on it as soon as it stops reading it.
//
//	c := reactive.NewComponent(func() {
//	    view, setter := lazystate.Use(map[string]any{"a": 1, "b": 2})
//	    fmt.Println(view.Get("a"))
//	    onChange = setter.Set
//	})
//	c.Render()
//
//	onChange(map[string]any{"a": 1, "b": 99}) // b was not read: no render
//	onChange(map[string]any{"a": 2, "b": 99}) // a changed: c.Dirty() is true
//
// Updates are always committed, whether or not they cause a render.
//
// State is the same mechanism without the hook runtime, for hosts that
// manage their own render loop: call BeginCycle before each render, read
// through View, and re-render when Set or Update returns true.
package lazystate

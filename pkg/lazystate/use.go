package lazystate

import (
	"github.com/vango-dev/lazystate/pkg/reactive"
	"github.com/vango-dev/lazystate/pkg/tracker"
)

// Setter proposes new states for a lazy state created with Use.
// It is stable across renders and may be kept by event handlers.
type Setter[T any] struct {
	state  *State[T]
	commit func(uint64)
}

// Set replaces the state with next. The component renders again only if a
// path read during its last render now holds a different value.
func (s *Setter[T]) Set(next T) {
	if s.state.Set(next) {
		s.commit(s.state.Snapshot().Generation)
	}
}

// Update replaces the state with fn applied to the committed state.
func (s *Setter[T]) Update(fn func(prev T) T) {
	if s.state.Update(fn) {
		s.commit(s.state.Snapshot().Generation)
	}
}

// Snapshot returns the committed snapshot, including updates that did not
// cause a render.
func (s *Setter[T]) Snapshot() T {
	return s.state.Snapshot().State
}

// Observed returns the paths read since the current render began.
func (s *Setter[T]) Observed() []string {
	return s.state.Observed()
}

// Use is the hook form of State. It returns a tracked view of the committed
// state and a Setter.
//
// Every call starts a new cycle: paths read through the view during this
// render replace the ones read during the previous render, so a key that is
// only read conditionally stops causing renders once it is no longer read.
//
//	view, setter := lazystate.Use(map[string]any{"a": 1, "b": 2})
//	a := view.Get("a")                   // only "a" is observed
//	setter.Set(map[string]any{"a": 1, "b": 3}) // no render
//
// initial is used on the first render only. A nil map or slice starts as
// an empty one. The view is nil when the state is not a container.
//
// This is a hook and must be called unconditionally during render.
func Use[T any](initial T, opts ...Option) (*tracker.View, *Setter[T]) {
	ref := reactive.UseRef[*State[T]](nil)
	if !ref.IsSet() {
		ref.Set(New(initial, opts...))
	}
	st := ref.Current()
	gen := st.Snapshot().Generation

	_, commit := reactive.UseState(gen)

	view := reactive.UseMemo(func() *tracker.View {
		v, _ := st.track().(*tracker.View)
		return v
	}, gen)

	setter := reactive.UseMemo(func() *Setter[T] {
		return &Setter[T]{state: st, commit: commit}
	})

	st.BeginCycle()
	return view, setter
}

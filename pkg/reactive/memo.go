package reactive

import "github.com/vango-dev/lazystate/pkg/lens"

type memoCell[T any] struct {
	deps     []any
	value    T
	computed bool
}

// UseMemo returns the value computed by compute, caching it across renders
// until one of deps changes. Dependencies are compared with lens.Same, so
// maps, slices and pointers are compared by identity.
//
// With no deps the value is computed once for the lifetime of the component.
//
// This is a hook and must be called unconditionally during render.
func UseMemo[T any](compute func() T, deps ...any) T {
	owner := hookOwner(HookMemo)
	cell := useSlot(owner, HookMemo, func() *memoCell[T] {
		return &memoCell[T]{}
	})

	if !cell.computed || depsChanged(cell.deps, deps) {
		cell.value = compute()
		cell.deps = append(cell.deps[:0], deps...)
		cell.computed = true
	}
	return cell.value
}

func depsChanged(prev, next []any) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if !lens.Same(prev[i], next[i]) {
			return true
		}
	}
	return false
}

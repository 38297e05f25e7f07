package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// HookType identifies the type of hook call for order validation.
type HookType uint8

const (
	HookState HookType = iota + 1
	HookMemo
	HookRef
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookState:
		return "State"
	case HookMemo:
		return "Memo"
	case HookRef:
		return "Ref"
	default:
		return "Unknown"
	}
}

// Owner is the reactive scope of one component instance. It keeps hook
// state across renders and runs cleanups when the instance is disposed.
//
// Owners form a hierarchy mirroring the component tree. Disposing an owner
// disposes its children first.
type Owner struct {
	id uint64

	parent *Owner

	children   []*Owner
	childrenMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	// invalidate is called when hook state asks for a re-render.
	invalidate   func()
	invalidateMu sync.RWMutex

	disposed  atomic.Bool
	rendering atomic.Bool

	// Hook order validation (only used when DebugMode is true).
	hookOrder   []HookType
	hookIndex   int
	renderCount int

	// Hook slots give hooks a stable identity across renders.
	hookSlots   []any
	hookSlotIdx int
}

// NewOwner creates an owner. A non-nil parent adopts the new owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.childrenMu.Lock()
		parent.children = append(parent.children, o)
		parent.childrenMu.Unlock()
	}
	return o
}

// ID returns the unique identifier for this owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent owner, or nil for a root owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed returns true if the owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// Rendering reports whether a render of this owner is in progress.
func (o *Owner) Rendering() bool {
	return o.rendering.Load()
}

// OnInvalidate sets the function called by Invalidate.
func (o *Owner) OnInvalidate(fn func()) {
	o.invalidateMu.Lock()
	defer o.invalidateMu.Unlock()
	o.invalidate = fn
}

// Invalidate asks for the owning component to render again.
// It is a no-op once the owner is disposed.
func (o *Owner) Invalidate() {
	if o.disposed.Load() {
		return
	}
	o.invalidateMu.RLock()
	fn := o.invalidate
	o.invalidateMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// OnCleanup registers fn to run when the owner is disposed.
// On an already disposed owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}
	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// Dispose disposes children in reverse creation order, then runs cleanups
// in reverse registration order. Hook slots are released.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := o.children
	o.children = nil
	o.childrenMu.Unlock()
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.hookSlots = nil
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// StartRender is called at the beginning of a render. It rewinds the hook
// slot index, and in debug mode the hook order index.
func (o *Owner) StartRender() {
	o.rendering.Store(true)
	o.hookSlotIdx = 0
	if DebugMode {
		o.hookIndex = 0
	}
}

// EndRender is called at the end of a render. In debug mode it checks that
// every hook seen on the first render was called again.
func (o *Owner) EndRender() {
	o.rendering.Store(false)
	if !DebugMode {
		return
	}
	if o.renderCount == 0 {
		o.renderCount = 1
	} else if o.hookIndex < len(o.hookOrder) {
		panic(fmt.Sprintf("[LAZYSTATE E002] Hook order changed: expected %d hooks, got %d",
			len(o.hookOrder), o.hookIndex))
	}
}

// TrackHook records a hook call. In debug mode, hooks must be called in the
// same order on every render.
func (o *Owner) TrackHook(ht HookType) {
	if !DebugMode {
		return
	}
	if o.renderCount == 0 {
		o.hookOrder = append(o.hookOrder, ht)
	} else {
		if o.hookIndex >= len(o.hookOrder) {
			panic(fmt.Sprintf("[LAZYSTATE E002] Hook order changed: extra %s hook at index %d",
				ht, o.hookIndex))
		}
		if expected := o.hookOrder[o.hookIndex]; expected != ht {
			panic(fmt.Sprintf("[LAZYSTATE E002] Hook order changed at index %d: expected %s, got %s",
				o.hookIndex, expected, ht))
		}
	}
	o.hookIndex++
}

// UseHookSlot returns the value stored in the current hook slot and advances
// to the next one. It returns nil on the first render; the caller then
// creates its state and stores it with SetHookSlot.
func (o *Owner) UseHookSlot() any {
	idx := o.hookSlotIdx
	o.hookSlotIdx++
	if idx < len(o.hookSlots) {
		return o.hookSlots[idx]
	}
	return nil
}

// SetHookSlot stores a value in the slot just returned by UseHookSlot.
func (o *Owner) SetHookSlot(value any) {
	o.hookSlots = append(o.hookSlots, value)
}

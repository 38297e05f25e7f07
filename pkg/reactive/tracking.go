package reactive

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DebugMode enables hook order validation. When true, a component whose
// hooks are called in a different order than on its first render panics.
// Set this at startup and do not change it while components are rendering.
var DebugMode bool

// globalIDCounter is the source of unique IDs for owners and components.
var globalIDCounter atomic.Uint64

func nextID() uint64 {
	return globalIDCounter.Add(1)
}

// trackingContext holds the render state for one goroutine.
type trackingContext struct {
	// currentOwner receives hook calls. Set while a component renders.
	currentOwner *Owner
}

// trackingContexts stores per-goroutine tracking contexts keyed by goroutine ID.
var trackingContexts sync.Map

// getGoroutineID returns the ID of the calling goroutine, parsed from the
// header of its stack trace ("goroutine <id> [...]").
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func getTrackingContext() *trackingContext {
	gid := getGoroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// CurrentOwner returns the owner of the component rendering on this
// goroutine, or nil outside a render.
func CurrentOwner() *Owner {
	if ctx, ok := trackingContexts.Load(getGoroutineID()); ok {
		return ctx.(*trackingContext).currentOwner
	}
	return nil
}

// WithOwner runs fn with owner as the current owner, restoring the previous
// owner afterwards. The goroutine's context is dropped once no owner is set.
func WithOwner(owner *Owner, fn func()) {
	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = owner
	defer func() {
		ctx.currentOwner = old
		if old == nil {
			trackingContexts.Delete(getGoroutineID())
		}
	}()
	fn()
}

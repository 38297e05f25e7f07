package reactive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Component is a mounted render function with its own Owner.
//
// Hooks called from the render function keep their state in the owner.
// When hook state invalidates the owner, the component is marked dirty and
// the scheduler, if any, is called. Flush renders a dirty component again.
type Component struct {
	id     string
	owner  *Owner
	render func()

	dirty         atomic.Bool
	renders       atomic.Int64
	invalidations atomic.Int64

	// renderMu serializes renders of this component.
	renderMu sync.Mutex

	schedule func(*Component)
	logger   *slog.Logger
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithScheduler sets a function called each time the component goes from
// clean to dirty. Use it to queue a re-render on the host's loop; it must
// not call Render synchronously, since it may run inside a render.
func WithScheduler(fn func(*Component)) ComponentOption {
	return func(c *Component) {
		c.schedule = fn
	}
}

// WithParent makes the component's owner a child of parent.
func WithParent(parent *Owner) ComponentOption {
	return func(c *Component) {
		if parent != nil {
			c.owner = NewOwner(parent)
		}
	}
}

// WithComponentLogger sets the logger for render tracing. Default: slog.Default().
func WithComponentLogger(logger *slog.Logger) ComponentOption {
	return func(c *Component) {
		c.logger = logger
	}
}

// NewComponent mounts render. It does not render; call Render for the
// initial pass.
func NewComponent(render func(), opts ...ComponentOption) *Component {
	c := &Component{render: render}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.owner == nil {
		c.owner = NewOwner(nil)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.id = fmt.Sprintf("c%d", c.owner.ID())
	c.owner.OnInvalidate(c.markDirty)
	return c
}

// ID returns the component's identifier.
func (c *Component) ID() string {
	return c.id
}

// Owner returns the component's owner.
func (c *Component) Owner() *Owner {
	return c.owner
}

// Render runs the render function with the component's owner as the
// current owner. The dirty flag is cleared before the render function runs,
// so an invalidation raised during render leaves the component dirty.
func (c *Component) Render() {
	if c.owner.IsDisposed() {
		return
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.dirty.Store(false)
	n := c.renders.Add(1)
	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug("component render", "component", c.id, "render", n)
	}

	WithOwner(c.owner, func() {
		c.owner.StartRender()
		defer c.owner.EndRender()
		c.render()
	})
}

// Flush renders the component if it is dirty and reports whether it did.
func (c *Component) Flush() bool {
	if !c.dirty.Load() {
		return false
	}
	c.Render()
	return true
}

// Dirty reports whether the component has been invalidated since its last render.
func (c *Component) Dirty() bool {
	return c.dirty.Load()
}

// Renders returns the number of completed or in-progress renders.
func (c *Component) Renders() int {
	return int(c.renders.Load())
}

// Invalidations returns how many times hook state asked for a re-render.
func (c *Component) Invalidations() int {
	return int(c.invalidations.Load())
}

// Dispose disposes the component's owner. Later renders are no-ops.
func (c *Component) Dispose() {
	c.owner.Dispose()
}

func (c *Component) markDirty() {
	c.invalidations.Add(1)
	if c.dirty.CompareAndSwap(false, true) && c.schedule != nil {
		c.schedule(c)
	}
}

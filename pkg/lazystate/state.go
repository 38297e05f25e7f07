package lazystate

import (
	"log/slog"
	"reflect"

	"github.com/vango-dev/lazystate/pkg/gate"
	"github.com/vango-dev/lazystate/pkg/lens"
	"github.com/vango-dev/lazystate/pkg/tracker"
)

// Option configures a State.
type Option func(*options)

type options struct {
	gate []gate.Option
}

// WithObserver adds an observer that receives every update decision.
func WithObserver(o gate.Observer) Option {
	return func(opts *options) {
		opts.gate = append(opts.gate, gate.WithObserver(o))
	}
}

// WithLogger sets the logger for decision tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.gate = append(opts.gate, gate.WithLogger(logger))
	}
}

// State is the per-instance context of a lazy state: the committed
// snapshot, the paths observed in the current cycle, and the tracked view.
//
// The view is rebuilt only when a new snapshot is committed. Reads through
// it register the path they used; Set and Update then compare only those
// paths.
//
// A State is not safe for concurrent use; it follows the render and update
// calls of the component that owns it.
type State[T any] struct {
	gate *gate.Gate[T]

	root    any
	rootGen uint64
}

// New creates a State holding initial. A nil map or slice initial value is
// replaced with an empty one, so the state always starts as a container.
func New[T any](initial T, opts ...Option) *State[T] {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &State[T]{gate: gate.New(emptyIfNil(initial), o.gate...)}
}

// View returns the tracked view of the committed snapshot. For a state that
// is not a container (a number, a func, ...) it returns nil; use Root.
func (s *State[T]) View() *tracker.View {
	if lens.KindOf(s.gate.Snapshot().State) != lens.Composite {
		return nil
	}
	v, _ := s.Root().(*tracker.View)
	return v
}

// Root returns the tracked form of the committed snapshot: a *tracker.View
// for containers, a wrapped func for funcs, or the value itself for
// terminals. A terminal state records a read of the whole state each time
// Root is called; containers and funcs are wrapped once per snapshot.
func (s *State[T]) Root() any {
	snap := s.gate.Snapshot()
	if lens.KindOf(snap.State) == lens.Terminal {
		return s.track()
	}
	if s.root == nil || s.rootGen != snap.Generation {
		s.root = s.track()
		s.rootGen = snap.Generation
	}
	return s.root
}

// track wraps the committed state without caching.
func (s *State[T]) track() any {
	return tracker.Track(s.gate.Snapshot().State, s.register)
}

func (s *State[T]) register(path ...lens.Key) {
	s.gate.Register(path...)
}

// BeginCycle starts a new render cycle: every previously observed path is
// forgotten.
func (s *State[T]) BeginCycle() {
	s.gate.Reset()
}

// Set commits next and reports whether any path observed in the current
// cycle changed.
func (s *State[T]) Set(next T) bool {
	return s.gate.Decide(next)
}

// Update commits fn(committed state) and reports whether any path observed
// in the current cycle changed.
func (s *State[T]) Update(fn func(prev T) T) bool {
	return s.gate.Decide(fn(s.gate.Snapshot().State))
}

// Snapshot returns the committed snapshot.
func (s *State[T]) Snapshot() gate.Snapshot[T] {
	return s.gate.Snapshot()
}

// Observed returns the paths read in the current cycle, in first-read order.
func (s *State[T]) Observed() []string {
	return s.gate.Observed()
}

// emptyIfNil replaces a nil map or slice with an empty one of the same type.
func emptyIfNil[T any](v T) T {
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
	case reflect.Slice:
		if rv.IsNil() {
			rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
		}
	}
	return v
}

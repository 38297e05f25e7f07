package gate

import (
	"context"
	"log/slog"

	"github.com/vango-dev/lazystate/pkg/lens"
)

// Snapshot is a committed state together with its derived emptiness flag.
type Snapshot[T any] struct {
	// State is the committed state value.
	State T

	// Empty is true when State has no own keys. It is recomputed on every commit.
	Empty bool

	// Generation increases by one on every commit, starting at 1 for the
	// initial state. It stands in for the identity of the snapshot.
	Generation uint64
}

// Decision describes the outcome of one Decide call.
type Decision struct {
	// Rerender is true when an observed path changed.
	Rerender bool

	// ChangedPath is the first observed path found to differ, if any.
	ChangedPath string

	// Checked is the number of equality checks evaluated before deciding.
	Checked int

	// Observed is the number of paths registered when Decide ran.
	Observed int

	// Empty is the emptiness flag of the newly committed snapshot.
	Empty bool

	// Generation is the generation of the newly committed snapshot.
	Generation uint64
}

// Observer is notified after every decision.
type Observer interface {
	ObserveDecision(d Decision)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(d Decision)

// ObserveDecision calls f(d).
func (f ObserverFunc) ObserveDecision(d Decision) {
	f(d)
}

// Option configures a Gate.
type Option func(*config)

type config struct {
	observers []Observer
	logger    *slog.Logger
}

// WithObserver adds an observer that receives every decision.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithLogger sets the logger used for debug output. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Gate decides whether a proposed state differs from the committed one in
// any of the paths observed during the current cycle.
//
// A Gate is owned by a single component instance and is not safe for
// concurrent use.
type Gate[T any] struct {
	registry  *Registry
	snapshot  Snapshot[T]
	observers []Observer
	logger    *slog.Logger
}

// New creates a gate holding initial as its first committed snapshot.
func New[T any](initial T, opts ...Option) *Gate[T] {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	g := &Gate[T]{
		registry:  NewRegistry(),
		observers: cfg.observers,
		logger:    cfg.logger,
	}
	g.commit(initial)
	return g
}

// Register records that path was read during the current cycle.
// Registering the same path twice keeps a single check.
func (g *Gate[T]) Register(path ...lens.Key) {
	p := append(lens.Path(nil), path...)
	g.registry.Set(p, lens.EqualAt(p...))
}

// Decide compares next against the committed snapshot at every observed
// path and reports whether any of them differs. next is committed whatever
// the outcome; the registry is left untouched until the next Reset.
//
// An empty registry never asks for a re-render.
func (g *Gate[T]) Decide(next T) bool {
	changed, at, checked := g.registry.Evaluate(g.snapshot.State, next)
	observed := g.registry.Len()
	g.commit(next)

	d := Decision{
		Rerender:    changed,
		ChangedPath: at,
		Checked:     checked,
		Observed:    observed,
		Empty:       g.snapshot.Empty,
		Generation:  g.snapshot.Generation,
	}
	if g.logger.Enabled(context.Background(), slog.LevelDebug) {
		g.logger.Debug("lazystate decision",
			"rerender", d.Rerender,
			"changed_path", d.ChangedPath,
			"checked", d.Checked,
			"observed", d.Observed,
			"generation", d.Generation,
		)
	}
	for _, o := range g.observers {
		o.ObserveDecision(d)
	}
	return changed
}

// Reset clears the registry. Call it exactly once at each cycle boundary so
// that a cycle only depends on what it read itself.
func (g *Gate[T]) Reset() {
	g.registry.Clear()
}

// Snapshot returns the committed snapshot.
func (g *Gate[T]) Snapshot() Snapshot[T] {
	return g.snapshot
}

// Observed returns the paths registered in the current cycle, in order.
func (g *Gate[T]) Observed() []string {
	return g.registry.Keys()
}

func (g *Gate[T]) commit(state T) {
	g.snapshot = Snapshot[T]{
		State:      state,
		Empty:      lens.IsEmpty(state),
		Generation: g.snapshot.Generation + 1,
	}
}

package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazystate/internal/errors"
	"github.com/vango-dev/lazystate/pkg/gate"
	"github.com/vango-dev/lazystate/pkg/lazystate"
	"github.com/vango-dev/lazystate/pkg/lens"
	"github.com/vango-dev/lazystate/pkg/reactive"
	"github.com/vango-dev/lazystate/pkg/tracker"
)

const tracerName = "github.com/vango-dev/lazystate/internal/scenario"

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	observers []gate.Observer
	logger    *slog.Logger
	tracer    trace.Tracer
	runID     string
}

// WithObserver adds an observer that receives every decision of the replay.
func WithObserver(o gate.Observer) Option {
	return func(c *runConfig) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithLogger sets the logger passed to the component and the state.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithTracer sets the tracer. Default: the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *runConfig) {
		c.tracer = t
	}
}

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) Option {
	return func(c *runConfig) {
		c.runID = id
	}
}

// runner holds one mounted component and the state it renders.
type runner struct {
	cfg  runConfig
	comp *reactive.Component

	initial   map[string]any
	stateOpts []lazystate.Option
	setter    *lazystate.Setter[map[string]any]

	// paths are read on every render until the next render step.
	paths []readPath
	reads []Read

	decision gate.Decision
}

// Run replays sc against a freshly mounted component. Failed expectations
// are reported in the Report; the error is non-nil only when ctx is done.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Report, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}

	r := &runner{
		cfg:     cfg,
		initial: materializeMap(sc.Initial),
	}
	r.stateOpts = []lazystate.Option{
		lazystate.WithLogger(cfg.logger),
		lazystate.WithObserver(gate.ObserverFunc(r.observe)),
	}
	for _, o := range cfg.observers {
		r.stateOpts = append(r.stateOpts, lazystate.WithObserver(o))
	}
	r.comp = reactive.NewComponent(r.render, reactive.WithComponentLogger(cfg.logger))
	defer r.comp.Dispose()

	report := &Report{RunID: cfg.runID, Scenario: sc.Name}

	ctx, span := cfg.tracer.Start(ctx, "lazystate.replay",
		trace.WithAttributes(
			attribute.String("lazystate.scenario", sc.Name),
			attribute.String("lazystate.run_id", cfg.runID),
			attribute.Int("lazystate.steps", len(sc.Steps)),
		),
	)
	defer span.End()

	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			report.Renders = r.comp.Renders()
			return report, err
		}
		report.add(r.step(ctx, i, &sc.Steps[i]))
	}
	report.Renders = r.comp.Renders()

	span.SetAttributes(
		attribute.Int("lazystate.renders", report.Renders),
		attribute.Int("lazystate.failures", report.Failures),
	)
	if report.Failures > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d failed steps", report.Failures))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	cfg.logger.Debug("scenario replayed",
		"scenario", sc.Name,
		"run_id", cfg.runID,
		"renders", report.Renders,
		"failures", report.Failures,
	)
	return report, nil
}

func (r *runner) render() {
	view, setter := lazystate.Use(r.initial, r.stateOpts...)
	r.setter = setter
	r.reads = make([]Read, 0, len(r.paths))
	for _, p := range r.paths {
		r.reads = append(r.reads, readAt(view, p))
	}
}

func (r *runner) observe(d gate.Decision) {
	r.decision = d
}

// mount performs the first render, with no reads, if no render step ran yet.
func (r *runner) mount() {
	if r.setter == nil {
		r.comp.Render()
	}
}

func (r *runner) step(ctx context.Context, i int, st *Step) StepResult {
	_, span := r.cfg.tracer.Start(ctx, "lazystate.step",
		trace.WithAttributes(
			attribute.Int("lazystate.step", i+1),
			attribute.String("lazystate.action", string(st.action)),
		),
	)
	defer span.End()

	res := StepResult{Step: i + 1, Action: st.action, Expect: st.Expect}

	switch st.action {
	case ActionRender:
		r.paths = st.reads
		r.comp.Render()
		res.Reads = r.reads
		res.Observed = r.setter.Observed()

	case ActionSet, ActionUpdate:
		r.mount()
		next, err := r.next(st)
		if err != nil {
			res.Failed = true
			res.Error = err.Error()
			break
		}

		r.setter.Set(next)
		d := r.decision
		res.Outcome = ExpectSkip
		if d.Rerender {
			res.Outcome = ExpectRerender
		}
		res.ChangedPath = d.ChangedPath
		res.Checked = d.Checked

		// A dirty component renders again with the reads of the last render step.
		if r.comp.Flush() {
			res.Reads = r.reads
		}
		res.Observed = r.setter.Observed()

		if st.Expect != ExpectNone && st.Expect != res.Outcome {
			res.Failed = true
			res.Error = fmt.Sprintf("expected %s, got %s", st.Expect, res.Outcome)
		}
		span.SetAttributes(
			attribute.String("lazystate.outcome", string(res.Outcome)),
			attribute.String("lazystate.changed_path", res.ChangedPath),
		)
	}

	for _, rd := range res.Reads {
		if rd.Error != "" {
			if !res.Failed {
				res.Error = rd.Error
			}
			res.Failed = true
		}
	}

	if res.Failed {
		span.SetStatus(codes.Error, res.Error)
	}
	r.cfg.logger.Debug("scenario step",
		"step", res.Step,
		"action", res.Action,
		"outcome", res.Outcome,
		"failed", res.Failed,
	)
	return res
}

// next builds the proposed state of a set or update step.
func (r *runner) next(st *Step) (map[string]any, error) {
	if st.action == ActionSet {
		return materializeMap(st.Set), nil
	}
	out, err := runUpdate(st.program, r.setter.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("update %q: %w", st.Update, err)
	}
	return materializeMap(out), nil
}

// readAt walks p through view, recording reads the way component code would.
func readAt(view *tracker.View, p readPath) Read {
	rd := Read{Path: p.raw}

	var cur any = view
	for i, key := range p.keys {
		v, ok := cur.(*tracker.View)
		if !ok || v == nil {
			name := lens.Join(p.keys[:i]...)
			if name == "" {
				name = "state"
			}
			return rd.fail(fmt.Errorf("%s is not a container", name))
		}
		cur = v.Get(key)
	}

	if p.call {
		out, err := invoke(cur)
		if err != nil {
			return rd.fail(fmt.Errorf("cannot call %s: %w", lens.Join(p.keys...), err))
		}
		cur = out
	}
	rd.Value = display(cur)
	return rd
}

func (rd Read) fail(err error) Read {
	e := errors.New("E141").Wrap(err)
	rd.Error = e.Error()
	rd.Code = e.Code
	return rd
}

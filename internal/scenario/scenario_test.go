package scenario

import (
	"bytes"
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/lazystate/internal/errors"
	"github.com/vango-dev/lazystate/pkg/gate"
	"github.com/vango-dev/lazystate/pkg/lens"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(src), "test.yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sc
}

func mustRun(t *testing.T, sc *Scenario, opts ...Option) *Report {
	t.Helper()
	report, err := Run(context.Background(), sc, opts...)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func TestLoadConditionalReads(t *testing.T) {
	sc, err := Load("testdata/conditional.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sc.Name != "conditional reads" {
		t.Errorf("expected name %q, got %q", "conditional reads", sc.Name)
	}

	report := mustRun(t, sc)
	if !report.Passed() {
		t.Fatalf("expected all steps to pass, got %+v", report.Steps)
	}
	if report.Renders != 3 {
		t.Errorf("expected 3 renders, got %d", report.Renders)
	}
	if report.Rerenders != 1 || report.Skips != 2 {
		t.Errorf("expected 1 rerender and 2 skips, got %d and %d", report.Rerenders, report.Skips)
	}

	first := report.Steps[0]
	if !reflect.DeepEqual(first.Observed, []string{"a"}) {
		t.Errorf("expected observed [a], got %v", first.Observed)
	}
	if len(first.Reads) != 1 || first.Reads[0].Value != 1 {
		t.Errorf("expected a = 1, got %+v", first.Reads)
	}

	changed := report.Steps[2]
	if changed.ChangedPath != "a" {
		t.Errorf("expected changed path a, got %q", changed.ChangedPath)
	}
	if len(changed.Reads) != 1 || changed.Reads[0].Value != 2 {
		t.Errorf("expected the re-render to read a = 2, got %+v", changed.Reads)
	}

	if len(report.Steps[3].Observed) != 0 {
		t.Errorf("expected nothing observed after an empty render, got %v", report.Steps[3].Observed)
	}
	if report.Steps[4].Checked != 0 {
		t.Errorf("expected no checks with an empty registry, got %d", report.Steps[4].Checked)
	}
}

func TestLoadCallable(t *testing.T) {
	sc, err := Load("testdata/callable.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	report := mustRun(t, sc)
	if !report.Passed() {
		t.Fatalf("expected all steps to pass, got %+v", report.Steps)
	}

	if got := report.Steps[0].Reads[0].Value; got != "fn" {
		t.Errorf("expected an uncalled func to display as fn, got %v", got)
	}
	if len(report.Steps[0].Observed) != 0 {
		t.Errorf("expected reading a func to observe nothing, got %v", report.Steps[0].Observed)
	}

	called := report.Steps[2]
	if got := called.Reads[0].Value; got != "save" {
		t.Errorf("expected call to return save, got %v", got)
	}
	if !reflect.DeepEqual(called.Observed, []string{"onSave"}) {
		t.Errorf("expected observed [onSave], got %v", called.Observed)
	}

	if report.Steps[4].ChangedPath != "onSave" {
		t.Errorf("expected changed path onSave, got %q", report.Steps[4].ChangedPath)
	}
}

func TestRunExpectationFailure(t *testing.T) {
	sc := mustParse(t, `
initial: {a: 1, b: 2}
steps:
  - render: [a]
  - set: {a: 1, b: 3}
    expect: rerender
`)

	report := mustRun(t, sc)
	if report.Passed() {
		t.Fatal("expected the replay to fail")
	}
	if report.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", report.Failures)
	}
	step := report.Steps[1]
	if !step.Failed || step.Error != "expected rerender, got skip" {
		t.Errorf("unexpected step result %+v", step)
	}
}

func TestRunSetBeforeRenderMounts(t *testing.T) {
	sc := mustParse(t, `
initial: {a: 1}
steps:
  - set: {a: 2}
    expect: skip
`)

	report := mustRun(t, sc)
	if !report.Passed() {
		t.Fatalf("unexpected failures %+v", report.Steps)
	}
	if report.Renders != 1 {
		t.Errorf("expected the implicit mount render only, got %d", report.Renders)
	}
}

func TestRunSymbolsAndNesting(t *testing.T) {
	sc := mustParse(t, `
initial:
  user: {name: ada, tags: [x, y]}
steps:
  - render: [user.name, "user.tags.#len", "user.tags.1"]
  - update: 'merge(state, {"user": {"name": "ada", "tags": ["x", "y", "z"]}})'
    expect: rerender
  - render: ["#empty"]
  - set: {}
    expect: rerender
`)

	report := mustRun(t, sc)
	if !report.Passed() {
		t.Fatalf("unexpected failures %+v", report.Steps)
	}

	want := []string{"user.name", "user.tags.@len", "user.tags.1"}
	if !reflect.DeepEqual(report.Steps[0].Observed, want) {
		t.Errorf("expected observed %v, got %v", want, report.Steps[0].Observed)
	}
	if got := report.Steps[0].Reads[1].Value; got != 2 {
		t.Errorf("expected len 2, got %v", got)
	}
	if report.Steps[1].ChangedPath != "user.tags.@len" {
		t.Errorf("expected len to change, got %q", report.Steps[1].ChangedPath)
	}
	if report.Steps[3].ChangedPath != "@empty" {
		t.Errorf("expected emptiness to change, got %q", report.Steps[3].ChangedPath)
	}
}

func TestRunReadErrors(t *testing.T) {
	sc := mustParse(t, `
initial: {a: 1}
steps:
  - render: [a.b, "a()"]
`)

	report := mustRun(t, sc)
	if report.Failures != 1 {
		t.Fatalf("expected 1 failed step, got %d", report.Failures)
	}
	reads := report.Steps[0].Reads
	if reads[0].Error != "E141: Read failed: a is not a container" || reads[0].Code != "E141" {
		t.Errorf("unexpected error %q (%s)", reads[0].Error, reads[0].Code)
	}
	if !strings.Contains(reads[1].Error, "cannot call a") {
		t.Errorf("unexpected error %q", reads[1].Error)
	}
}

func TestRunUpdateError(t *testing.T) {
	sc := mustParse(t, `
initial: {a: 1}
steps:
  - update: state.a
`)

	report := mustRun(t, sc)
	step := report.Steps[0]
	if !step.Failed || !strings.Contains(step.Error, "expected a map") {
		t.Errorf("unexpected step result %+v", step)
	}
	if step.Outcome != "" {
		t.Errorf("expected no outcome, got %q", step.Outcome)
	}
}

func TestRunObserverAndRunID(t *testing.T) {
	sc := mustParse(t, `
initial: {a: 1}
steps:
  - render: [a]
  - set: {a: 2}
  - set: {a: 2}
`)

	var decisions []gate.Decision
	report := mustRun(t, sc,
		WithRunID("run-1"),
		WithObserver(gate.ObserverFunc(func(d gate.Decision) {
			decisions = append(decisions, d)
		})),
	)

	if report.RunID != "run-1" {
		t.Errorf("expected run id run-1, got %q", report.RunID)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if !decisions[0].Rerender || decisions[1].Rerender {
		t.Errorf("expected rerender then skip, got %+v", decisions)
	}
}

func TestRunGeneratesRunID(t *testing.T) {
	sc := mustParse(t, "initial: {}\nsteps: []\n")
	a := mustRun(t, sc)
	b := mustRun(t, sc)
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("expected distinct run ids, got %q and %q", a.RunID, b.RunID)
	}
}

func TestRunCanceled(t *testing.T) {
	sc := mustParse(t, `
initial: {a: 1}
steps:
  - render: [a]
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, sc)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Steps) != 0 {
		t.Errorf("expected no steps to run, got %d", len(report.Steps))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"invalid yaml", "initial: [", "E120"},
		{"initial not a mapping", "initial: 5\n", "E120"},
		{"two actions", "steps:\n  - render: [a]\n    set: {a: 1}\n", "E120"},
		{"no action", "steps:\n  - expect: skip\n", "E121"},
		{"empty read path", "steps:\n  - render: [\"\"]\n", "E121"},
		{"empty key", "steps:\n  - render: [a..b]\n", "E121"},
		{"bad expression", "steps:\n  - update: 'merge(state,'\n", "E122"},
		{"empty expression", "steps:\n  - update: ''\n", "E122"},
		{"expect on render", "steps:\n  - render: [a]\n    expect: skip\n", "E123"},
		{"unknown expect", "steps:\n  - set: {a: 1}\n    expect: maybe\n", "E123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.yaml")
			if !errors.Is(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestParseReadPath(t *testing.T) {
	rp, err := parseReadPath("items.#len")
	if err != nil {
		t.Fatal(err)
	}
	if len(rp.keys) != 2 || rp.keys[1] != lens.LenKey || rp.call {
		t.Errorf("unexpected path %+v", rp)
	}

	rp, err = parseReadPath("handlers.save()")
	if err != nil {
		t.Fatal(err)
	}
	if !rp.call || lens.Join(rp.keys...) != "handlers.save" {
		t.Errorf("unexpected path %+v", rp)
	}
}

func TestMaterialize(t *testing.T) {
	inner := map[string]any{"x": 1}
	m := map[string]any{"inner": inner, "list": []any{"a"}}

	out, changed := materialize(m)
	if changed {
		t.Error("expected no change without fn strings")
	}
	if !lens.Same(out, m) {
		t.Error("expected the same map back")
	}

	m["onClick"] = "fn:click"
	out, changed = materialize(m)
	if !changed {
		t.Fatal("expected a change")
	}
	got := out.(map[string]any)
	if !lens.Same(got["inner"], inner) {
		t.Error("expected untouched branches to keep their identity")
	}
	fn, ok := got["onClick"].(func() string)
	if !ok || fn() != "click" {
		t.Errorf("expected a func returning click, got %T", got["onClick"])
	}
	if m["onClick"] != "fn:click" {
		t.Error("expected the input map to stay unchanged")
	}

	again, _ := materialize(m)
	if lens.Same(again.(map[string]any)["onClick"], got["onClick"]) {
		t.Error("expected each materialization to create a new func")
	}
}

func TestMerge(t *testing.T) {
	a := map[string]any{"a": 1, "b": 2}
	out, err := merge(a, map[string]any{"b": 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"a": 1, "b": 3}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %v, got %v", want, out)
	}
	if a["b"] != 2 {
		t.Error("expected merge not to modify its arguments")
	}

	if _, err := merge(a, 5); err == nil {
		t.Error("expected an error for a non-map argument")
	}
}

func TestReportWriteText(t *testing.T) {
	sc := mustParse(t, `
name: text
initial: {a: 1, b: "x"}
steps:
  - render: [a, b]
  - set: {a: 2, b: "x"}
    expect: skip
`)
	report := mustRun(t, sc, WithRunID("r1"))

	var buf bytes.Buffer
	if err := report.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"text (run r1)",
		`b = "x"`,
		"FAIL  2 set    -> rerender (a)",
		"expected skip, got rerender",
		"1 failures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in report:\n%s", want, out)
		}
	}
}

func TestParseReadPathNumericParts(t *testing.T) {
	tests := []struct {
		raw  string
		want lens.Key
	}{
		{"items.2", 2},
		{"items.02", "02"},
		{"items.-1", "-1"},
	}
	for _, tt := range tests {
		rp, err := parseReadPath(tt.raw)
		if err != nil {
			t.Fatal(err)
		}
		if rp.keys[1] != tt.want {
			t.Errorf("%s: expected key %#v, got %#v", tt.raw, tt.want, rp.keys[1])
		}
	}
}

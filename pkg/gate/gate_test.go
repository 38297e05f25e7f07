package gate

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/lazystate/pkg/lens"
)

type state = map[string]any

func TestDecideWithoutReadsNeverRerenders(t *testing.T) {
	g := New(state{"a": 1, "b": 2})

	if g.Decide(state{"a": 100, "c": 3}) {
		t.Error("expected no rerender with an empty registry")
	}
	if g.Snapshot().State["a"] != 100 {
		t.Error("expected next state to be committed anyway")
	}
}

func TestDecideObservedPath(t *testing.T) {
	tests := []struct {
		name string
		next state
		want bool
	}{
		{"observed unchanged, other changed", state{"a": 1, "b": 99}, false},
		{"observed changed", state{"a": 2, "b": 2}, true},
		{"observed removed", state{"b": 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(state{"a": 1, "b": 2})
			g.Register("a")
			if got := g.Decide(tt.next); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDecideComparesAgainstLatestCommit(t *testing.T) {
	g := New(state{"a": 1, "b": 2})
	g.Register("a")

	if g.Decide(state{"a": 1, "b": 99}) {
		t.Fatal("expected first update to be skipped")
	}
	// The registry survives until Reset, so the second update still sees "a".
	if !g.Decide(state{"a": 2, "b": 2}) {
		t.Fatal("expected second update to rerender")
	}

	g.Reset()
	if g.Decide(state{"a": 3, "b": 2}) {
		t.Error("expected no rerender after reset")
	}
}

func TestDecideNestedPaths(t *testing.T) {
	profile := state{"name": "ada", "zip": "1"}
	g := New(state{"user": profile})
	g.Register("user", "name")

	if g.Decide(state{"user": state{"name": "ada", "zip": "2"}}) {
		t.Error("expected unchanged nested leaf to skip")
	}
	if !g.Decide(state{"user": state{"name": "grace"}}) {
		t.Error("expected changed nested leaf to rerender")
	}
	if !g.Decide(state{}) {
		t.Error("expected missing intermediate container to rerender")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	once := New(state{"a": 1})
	once.Register("a")

	twice := New(state{"a": 1})
	twice.Register("a")
	twice.Register("a")

	if twice.registry.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", twice.registry.Len())
	}
	for _, next := range []state{{"a": 1}, {"a": 2}} {
		if once.Decide(next) != twice.Decide(next) {
			t.Errorf("expected same decision for %v", next)
		}
	}
}

func TestFunctionValuedState(t *testing.T) {
	onClick := func() {}
	g := New(state{"onClick": onClick})
	g.Register("onClick")

	if g.Decide(state{"onClick": onClick}) {
		t.Error("expected same func to skip")
	}
	if !g.Decide(state{"onClick": func() { _ = onClick }}) {
		t.Error("expected replaced func to rerender")
	}
}

func TestEmptinessFlag(t *testing.T) {
	g := New(state{})
	if !g.Snapshot().Empty {
		t.Error("expected empty initial snapshot")
	}

	steps := []struct {
		next  state
		empty bool
	}{
		{state{"a": 1}, false},
		{state{}, true},
		{nil, true},
		{state{"a": nil}, false},
	}
	for _, s := range steps {
		g.Decide(s.next)
		if got := g.Snapshot().Empty; got != s.empty {
			t.Errorf("after %v: expected empty=%v, got %v", s.next, s.empty, got)
		}
	}
}

func TestEmptinessFlagNonEmptyInitial(t *testing.T) {
	g := New(state{"a": 1})
	if g.Snapshot().Empty {
		t.Error("expected non-empty initial snapshot")
	}
}

func TestGenerationAdvancesOnEveryCommit(t *testing.T) {
	g := New(state{"a": 1})
	if g.Snapshot().Generation != 1 {
		t.Fatalf("expected generation 1, got %d", g.Snapshot().Generation)
	}
	g.Decide(state{"a": 1})
	g.Decide(state{"a": 1})
	if g.Snapshot().Generation != 3 {
		t.Errorf("expected generation 3, got %d", g.Snapshot().Generation)
	}
}

func TestRegistryOrderAndShortCircuit(t *testing.T) {
	r := NewRegistry()
	calls := []string{}
	check := func(name string, equal bool) lens.Equality {
		return func(prev, next any) bool {
			calls = append(calls, name)
			return equal
		}
	}

	r.Set(lens.Path{"a"}, check("a", true))
	r.Set(lens.Path{"b"}, check("b", false))
	r.Set(lens.Path{"c"}, check("c", false))
	// Overwrite keeps the original position.
	r.Set(lens.Path{"a"}, check("a2", true))

	if got := strings.Join(r.Keys(), ","); got != "a,b,c" {
		t.Errorf("expected keys a,b,c, got %s", got)
	}

	changed, at, checked := r.Evaluate(nil, nil)
	if !changed || at != "b" || checked != 2 {
		t.Errorf("expected change at b after 2 checks, got %v %q %d", changed, at, checked)
	}
	if strings.Join(calls, ",") != "a2,b" {
		t.Errorf("expected calls a2,b, got %v", calls)
	}

	r.Clear()
	if r.Len() != 0 || r.Has(lens.Path{"a"}) {
		t.Error("expected registry to be empty after Clear")
	}
}

func TestObserverReceivesDecisions(t *testing.T) {
	var got []Decision
	g := New(state{"a": 1, "b": 2}, WithObserver(ObserverFunc(func(d Decision) {
		got = append(got, d)
	})))
	g.Register("b")
	g.Register("a")

	g.Decide(state{"a": 2, "b": 2})

	if len(got) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(got))
	}
	d := got[0]
	if !d.Rerender || d.ChangedPath != "a" || d.Checked != 2 || d.Observed != 2 {
		t.Errorf("unexpected decision: %+v", d)
	}
	if d.Generation != 2 || d.Empty {
		t.Errorf("unexpected snapshot fields: %+v", d)
	}
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	g := New(state{"a": 1}, WithLogger(logger))
	g.Register("a")
	g.Decide(state{"a": 2})

	out := buf.String()
	if !strings.Contains(out, "lazystate decision") || !strings.Contains(out, "changed_path=a") {
		t.Errorf("expected decision log, got %q", out)
	}
}

func TestObserved(t *testing.T) {
	g := New(state{"user": state{"name": "ada"}})
	g.Register("user", "name")
	g.Register(lens.EmptyKey)

	obs := g.Observed()
	if len(obs) != 2 || obs[0] != "user.name" || obs[1] != "@empty" {
		t.Errorf("expected [user.name @empty], got %v", obs)
	}
}

func TestEmptyKeyDependency(t *testing.T) {
	g := New(state{})
	g.Register(lens.EmptyKey)

	if g.Decide(state{}) {
		t.Error("expected still-empty state to skip")
	}
	if !g.Decide(state{"a": 1}) {
		t.Error("expected emptiness change to rerender")
	}
	if g.Decide(state{"a": 1, "b": 2}) {
		t.Error("expected non-empty to non-empty to skip")
	}
}

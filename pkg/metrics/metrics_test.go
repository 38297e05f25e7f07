package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vango-dev/lazystate/pkg/lazystate"
)

func TestCollectorCountsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	s := lazystate.New(map[string]any{"a": 1}, lazystate.WithObserver(m))
	s.View().Get("a")

	s.Set(map[string]any{"a": 2})
	s.Set(map[string]any{"a": 2})
	s.Set(map[string]any{})

	if got := testutil.ToFloat64(m.decisions.WithLabelValues(OutcomeRerender)); got != 2 {
		t.Errorf("expected 2 rerenders, got %v", got)
	}
	if got := testutil.ToFloat64(m.decisions.WithLabelValues(OutcomeSkip)); got != 1 {
		t.Errorf("expected 1 skip, got %v", got)
	}
	if got := testutil.ToFloat64(m.observed); got != 1 {
		t.Errorf("expected 1 observed path, got %v", got)
	}
	if got := testutil.ToFloat64(m.empty); got != 1 {
		t.Errorf("expected 1 empty commit, got %v", got)
	}
}

func TestCollectorExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithSubsystem("ui"), WithConstLabels(prometheus.Labels{"app": "demo"}))

	s := lazystate.New(map[string]any{"a": 1}, lazystate.WithObserver(m))
	s.Set(map[string]any{"a": 2})

	expected := `
# HELP lazystate_ui_decisions_total Total number of update decisions, by outcome
# TYPE lazystate_ui_decisions_total counter
lazystate_ui_decisions_total{app="demo",outcome="skip"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "lazystate_ui_decisions_total"); err != nil {
		t.Error(err)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(WithRegistry(reg))
}

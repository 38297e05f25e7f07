package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/lazystate/internal/errors"
)

const conditional = "../../internal/scenario/testdata/conditional.yaml"

func writeScenario(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunReplayText(t *testing.T) {
	var buf bytes.Buffer
	if err := runReplay(context.Background(), &buf, []string{conditional}, false); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "conditional reads") || !strings.Contains(out, "0 failures") {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestRunReplayJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := runReplay(context.Background(), &buf, []string{conditional, conditional}, true); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}

	var reports []struct {
		RunID    string `json:"runId"`
		Failures int    `json:"failures"`
	}
	if err := json.Unmarshal(buf.Bytes(), &reports); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].RunID == reports[1].RunID {
		t.Error("expected a run id per replay")
	}
}

func TestRunReplayFailure(t *testing.T) {
	path := writeScenario(t, `
initial: {a: 1}
steps:
  - render: [a]
  - set: {a: 1}
    expect: rerender
`)

	var buf bytes.Buffer
	err := runReplay(context.Background(), &buf, []string{path}, false)
	if !errors.Is(err, "E140") {
		t.Fatalf("expected E140, got %v", err)
	}
	if !strings.Contains(buf.String(), "expected rerender, got skip") {
		t.Errorf("expected the failure in the report:\n%s", buf.String())
	}
}

func TestRunReplayInvalidFile(t *testing.T) {
	path := writeScenario(t, "steps:\n  - expect: skip\n")

	err := runReplay(context.Background(), &bytes.Buffer{}, []string{path}, false)
	if !errors.Is(err, "E121") {
		t.Errorf("expected E121, got %v", err)
	}
}

func TestReplayCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"replay", "--json", "-C", t.TempDir(), conditional})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"scenario": "conditional reads"`) {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestReplayCommandRequiresFiles(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"replay", "-C", t.TempDir()})

	if err := cmd.Execute(); err == nil {
		t.Error("expected an error without files")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version", "--short"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != version {
		t.Errorf("expected %q, got %q", version, buf.String())
	}
}

func TestRunPrintsJSONErrorForJSONReplay(t *testing.T) {
	path := writeScenario(t, `
initial: {a: 1}
steps:
  - render: [a]
  - set: {a: 1}
    expect: rerender
`)

	var stderr bytes.Buffer
	if code := run([]string{"replay", "--json", "-C", t.TempDir(), path}, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	var got map[string]any
	if err := json.Unmarshal(stderr.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON error, got %q: %v", stderr.String(), err)
	}
	if got["code"] != "E140" || got["category"] != "replay" {
		t.Errorf("unexpected error %v", got)
	}
}

func TestRunWrapsUncodedErrors(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"replay", "-C", t.TempDir()}, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	out := stderr.String()
	if !strings.Contains(out, "E160") || !strings.Contains(out, "requires at least 1 arg") {
		t.Errorf("unexpected error output %q", out)
	}
}

package scenario

import (
	"fmt"
	"io"
	"strings"
)

// Report is the outcome of one replay.
type Report struct {
	RunID    string       `json:"runId"`
	Scenario string       `json:"scenario"`
	Steps    []StepResult `json:"steps"`

	// Renders counts every render of the component, including re-renders
	// caused by updates.
	Renders int `json:"renders"`

	Rerenders int `json:"rerenders"`
	Skips     int `json:"skips"`
	Failures  int `json:"failures"`
}

// StepResult describes what one step did.
type StepResult struct {
	Step   int    `json:"step"`
	Action Action `json:"action"`

	// Reads holds the values read by the render this step caused, if any.
	Reads []Read `json:"reads,omitempty"`

	// Observed is the registry content after the step.
	Observed []string `json:"observed,omitempty"`

	// Outcome is rerender or skip for set and update steps.
	Outcome     Expectation `json:"outcome,omitempty"`
	ChangedPath string      `json:"changedPath,omitempty"`
	Checked     int         `json:"checked,omitempty"`

	Expect Expectation `json:"expect,omitempty"`
	Failed bool        `json:"failed,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Read is one path read during a render.
type Read struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Passed reports whether every step met its expectation.
func (r *Report) Passed() bool {
	return r.Failures == 0
}

func (r *Report) add(res StepResult) {
	switch res.Outcome {
	case ExpectRerender:
		r.Rerenders++
	case ExpectSkip:
		r.Skips++
	}
	if res.Failed {
		r.Failures++
	}
	r.Steps = append(r.Steps, res)
}

// WriteText prints the report in a human readable form.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (run %s)\n", r.Scenario, r.RunID)
	for _, s := range r.Steps {
		mark := "ok  "
		if s.Failed {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  %s %2d %-6s", mark, s.Step, s.Action)
		if s.Outcome != "" {
			fmt.Fprintf(&b, " -> %s", s.Outcome)
			if s.ChangedPath != "" {
				fmt.Fprintf(&b, " (%s)", s.ChangedPath)
			}
		}
		b.WriteString("\n")
		for _, rd := range s.Reads {
			if rd.Error != "" {
				fmt.Fprintf(&b, "         %s: error: %s\n", rd.Path, rd.Error)
				continue
			}
			fmt.Fprintf(&b, "         %s = %s\n", rd.Path, formatValue(rd.Value))
		}
		if s.Failed && s.Error != "" {
			fmt.Fprintf(&b, "         %s\n", s.Error)
		}
	}
	fmt.Fprintf(&b, "  %d renders, %d rerenders, %d skips, %d failures\n",
		r.Renders, r.Rerenders, r.Skips, r.Failures)

	_, err := io.WriteString(w, b.String())
	return err
}

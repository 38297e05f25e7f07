package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNewFromRegistry(t *testing.T) {
	err := New("E120")
	if err.Category != CategoryScenario {
		t.Errorf("expected category %q, got %q", CategoryScenario, err.Category)
	}
	if err.Message != "Invalid scenario file" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("E999")
	if err.Message != "Unknown error" || err.Code != "E999" {
		t.Errorf("unexpected error %+v", err)
	}
}

func TestErrorStringAndUnwrap(t *testing.T) {
	cause := stderrors.New("yaml: line 3: bad indentation")
	err := New("E120").WithSource("steps.yaml").Wrap(cause)

	want := "steps.yaml: E120: Invalid scenario file: yaml: line 3: bad indentation"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E100") != nil {
		t.Error("expected nil for nil error")
	}

	orig := New("E121")
	if FromError(orig, "E100") != orig {
		t.Error("expected existing Error to be returned unchanged")
	}

	wrapped := FromError(stderrors.New("boom"), "E100")
	if wrapped.Code != "E100" || wrapped.Wrapped == nil {
		t.Errorf("unexpected wrapped error %+v", wrapped)
	}
	if !Is(wrapped, "E100") || Is(wrapped, "E101") {
		t.Error("expected Is to match on code")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E123").WithSource("a.yaml").WithSuggestion("use rerender or skip")
	out := err.Format()

	for _, want := range []string{"ERROR E123: Invalid expectation", "a.yaml", "Hint: use rerender or skip"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	err := Newf(CategoryCLI, "no scenario files given").Wrap(stderrors.New("empty args"))

	var got map[string]string
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatalf("invalid JSON: %v", e)
	}
	if got["category"] != "cli" || got["message"] != "no scenario files given" || got["cause"] != "empty args" {
		t.Errorf("unexpected JSON %v", got)
	}
	if _, ok := got["code"]; ok {
		t.Error("expected code to be omitted")
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		width int
		want  []string
	}{
		{9, []string{"one two", "three", "four"}},
		{10, []string{"one two", "three four"}},
	}
	for _, tt := range tests {
		lines := wrapText("one two three four", tt.width)
		if strings.Join(lines, "|") != strings.Join(tt.want, "|") {
			t.Errorf("width %d: expected %q, got %q", tt.width, tt.want, lines)
		}
	}
}

func TestLookup(t *testing.T) {
	tmpl, ok := Lookup("E141")
	if !ok || tmpl.Category != CategoryReplay {
		t.Errorf("expected E141 to be a replay error, got %+v", tmpl)
	}
	if _, ok := Lookup("E999"); ok {
		t.Error("expected unknown code to be missing")
	}
	if e := New("E999"); e.Message != "Unknown error" {
		t.Errorf("expected unknown error, got %q", e.Message)
	}
}

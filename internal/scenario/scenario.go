package scenario

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/lazystate/internal/errors"
	"github.com/vango-dev/lazystate/pkg/lens"
)

// Action is the kind of a step.
type Action string

const (
	ActionRender Action = "render"
	ActionSet    Action = "set"
	ActionUpdate Action = "update"
)

// Expectation is the decision a set or update step must produce.
type Expectation string

const (
	ExpectNone     Expectation = ""
	ExpectRerender Expectation = "rerender"
	ExpectSkip     Expectation = "skip"
)

// Scenario is a replayable sequence of renders and updates against one
// lazy state.
type Scenario struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Initial     map[string]any `yaml:"initial" json:"-"`
	Steps       []Step         `yaml:"steps" json:"-"`

	source string
}

// Step is one entry of a scenario. Exactly one of Render, Set or Update is
// given.
type Step struct {
	// Render lists the paths read during a render.
	Render []string `yaml:"render,omitempty"`

	// Set is the next state, verbatim.
	Set map[string]any `yaml:"set,omitempty"`

	// Update is an expression over state producing the next state.
	Update string `yaml:"update,omitempty"`

	// Expect is the decision the step must produce.
	Expect Expectation `yaml:"expect,omitempty"`

	action  Action
	line    int
	reads   []readPath
	program *vm.Program
}

// Action returns the kind of the step.
func (s *Step) Action() Action {
	return s.action
}

// UnmarshalYAML decodes a step and records which action it names.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	type plain Step
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line = node.Line
	s.action = ""
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var a Action
		switch node.Content[i].Value {
		case "render":
			a = ActionRender
		case "set":
			a = ActionSet
		case "update":
			a = ActionUpdate
		default:
			continue
		}
		if s.action != "" {
			return fmt.Errorf("line %d: step has both %s and %s", node.Line, s.action, a)
		}
		s.action = a
	}
	return nil
}

// readPath is a parsed render entry.
type readPath struct {
	raw  string
	keys lens.Path
	call bool
}

// Parse decodes and validates a scenario. source names the input in errors.
func Parse(data []byte, source string) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.New("E120").
			WithSource(source).
			WithSuggestion("Check the YAML syntax and that initial is a mapping").
			Wrap(err)
	}
	sc.source = source
	if sc.Name == "" {
		sc.Name = source
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E120").WithSource(path).Wrap(err)
	}
	return Parse(data, path)
}

// Validate checks every step and compiles update expressions.
func (sc *Scenario) Validate() error {
	for i := range sc.Steps {
		st := &sc.Steps[i]
		where := fmt.Sprintf("%s: step %d (line %d)", sc.source, i+1, st.line)

		switch st.action {
		case ActionRender:
			st.reads = st.reads[:0]
			for _, raw := range st.Render {
				rp, err := parseReadPath(raw)
				if err != nil {
					return errors.New("E121").WithSource(where).Wrap(err)
				}
				st.reads = append(st.reads, rp)
			}
			if st.Expect != ExpectNone {
				return errors.New("E123").
					WithSource(where).
					WithSuggestion("Put expect on the set or update step instead")
			}
		case ActionSet:
		case ActionUpdate:
			program, err := compileUpdate(st.Update)
			if err != nil {
				return errors.New("E122").
					WithSource(where).
					WithSuggestion(`Use an expression such as merge(state, {"a": state.a + 1})`).
					Wrap(err)
			}
			st.program = program
		default:
			return errors.New("E121").WithSource(where)
		}

		switch st.Expect {
		case ExpectNone, ExpectRerender, ExpectSkip:
		default:
			return errors.New("E123").WithSource(where).WithDetail(
				fmt.Sprintf("expect is %q; it must be rerender or skip.", st.Expect))
		}
	}
	return nil
}

// parseReadPath parses a render entry such as "user.name", "items.#len"
// or "onSave()". Numeric parts become int keys, which index slices and
// still resolve decimal keys of string-keyed maps.
func parseReadPath(raw string) (readPath, error) {
	rp := readPath{raw: raw}
	s := strings.TrimSpace(raw)
	if strings.HasSuffix(s, "()") {
		rp.call = true
		s = strings.TrimSuffix(s, "()")
	}
	if s == "" {
		return rp, fmt.Errorf("empty read path %q", raw)
	}
	for _, part := range strings.Split(s, lens.Delimiter) {
		switch part {
		case "":
			return rp, fmt.Errorf("empty key in read path %q", raw)
		case "#len":
			rp.keys = append(rp.keys, lens.LenKey)
		case "#empty":
			rp.keys = append(rp.keys, lens.EmptyKey)
		default:
			if i, err := strconv.Atoi(part); err == nil && i >= 0 && strconv.Itoa(i) == part {
				rp.keys = append(rp.keys, i)
				continue
			}
			rp.keys = append(rp.keys, part)
		}
	}
	return rp, nil
}

// compileUpdate compiles an update expression. The expression sees the
// committed state as state, plus the merge helper.
func compileUpdate(expression string) (*vm.Program, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("empty update expression")
	}
	return exprlang.Compile(expression,
		exprlang.Env(map[string]any{"state": map[string]any{}}),
		exprlang.AllowUndefinedVariables(),
		exprlang.Function("merge", merge),
	)
}

// runUpdate evaluates a compiled update against the committed state.
func runUpdate(program *vm.Program, state map[string]any) (map[string]any, error) {
	out, err := exprlang.Run(program, map[string]any{"state": state})
	if err != nil {
		return nil, err
	}
	next, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("update produced %T, expected a map", out)
	}
	return next, nil
}

// merge returns a shallow copy of its map arguments combined left to right.
func merge(params ...any) (any, error) {
	out := make(map[string]any)
	for i, p := range params {
		if p == nil {
			continue
		}
		m, ok := p.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("merge: argument %d is %T, expected a map", i+1, p)
		}
		for k, v := range m {
			out[k] = v
		}
	}
	return out, nil
}

// Package scenario replays scripted renders and updates against a lazy
// state mounted in a component, and reports which updates caused renders.
//
// # File Format
//
//	name: conditional reads
//	initial:
//	  a: 1
//	  b: 2
//	  onSave: "fn:save"
//	steps:
//	  - render: [a, "onSave()"]
//	  - set: {a: 1, b: 99, onSave: "fn:save"}
//	    expect: rerender
//	  - update: 'merge(state, {"b": 3})'
//	    expect: skip
//
// A render step lists the paths read during the render. Keys are separated
// by dots; #len and #empty read the length and emptiness of a container,
// and a trailing () calls the value. Reading a container or an uncalled
// func observes nothing, as in component code.
//
// A set step proposes its value verbatim. An update step evaluates an
// expr-lang expression in which state is the committed state and
// merge(a, b, ...) combines maps left to right.
//
// Every "fn:<name>" string becomes a new func returning name, so setting
// the same text twice still replaces the func. Values carried over by
// merge keep their identity.
//
// When a set or update causes a render, the component renders again with
// the paths of the latest render step.
package scenario

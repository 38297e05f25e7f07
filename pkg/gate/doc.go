// Package gate holds the per-cycle dependency registry and the update gate.
//
// During a render cycle every path read through the tracked view is
// registered with the Gate. When a new state is proposed, Decide compares
// the committed snapshot and the proposal at those paths only:
//
//	g := gate.New(map[string]any{"a": 1, "b": 2})
//	g.Register("a")
//	g.Decide(map[string]any{"a": 1, "b": 99}) // false: only b changed
//	g.Decide(map[string]any{"a": 2, "b": 2})  // true: a changed
//	g.Reset()                                 // next cycle starts empty
//
// Decide always commits the proposal. Its result only says whether the
// component needs to render again.
package gate

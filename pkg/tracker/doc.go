// Package tracker records which parts of a state value are read.
//
// Track wraps a value in a *View. Walking the view is free; reading a
// terminal value (a number, string, bool, nil, ...) or calling a func
// reports the full path used to reach it:
//
//	view := tracker.Track(state, func(path ...lens.Key) {
//	    fmt.Println(lens.Join(path...))
//	}).(*tracker.View)
//
//	view.Get("user").(*tracker.View).Get("name") // prints "user.name"
//	view.At("user", "address", "zip")            // prints "user.address.zip"
//
// Funcs are wrapped in a func of the same type, so a state field of type
// func(string) error can be called as usual:
//
//	save := view.Get("save").(func(string) error)
//	save("draft") // prints "save" before forwarding the call
//
// Existence checks (Has), enumeration (Keys) and Peek are not recorded.
package tracker

// Package errors provides structured errors for the lazystate CLI.
//
// Errors carry a registered code, a category, and an optional suggestion,
// and can be rendered for a terminal (Format) or as JSON (FormatJSON):
//
//	return errors.New("E120").
//	    WithSource(path).
//	    WithSuggestion("Check the indentation of the steps list").
//	    Wrap(err)
//
// Library packages do not use this package; they return plain wrapped errors.
package errors

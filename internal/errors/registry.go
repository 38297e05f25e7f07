package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid lazystate.json",
		Detail:   "The lazystate.json configuration file is malformed.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A LAZYSTATE_* environment variable holds a value of the wrong type.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn or error.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No lazystate.json was found at the given location.",
	},

	// ============================================
	// Scenario Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryScenario,
		Message:  "Invalid scenario file",
		Detail:   "The scenario is not valid YAML or does not match the scenario schema.",
	},
	"E121": {
		Category: CategoryScenario,
		Message:  "Invalid scenario step",
		Detail:   "Each step must contain exactly one of render, set or update.",
	},
	"E122": {
		Category: CategoryScenario,
		Message:  "Invalid update expression",
		Detail:   "The update expression failed to compile or did not produce a map.",
	},
	"E123": {
		Category: CategoryScenario,
		Message:  "Invalid expectation",
		Detail:   "expect must be either rerender or skip.",
	},

	// ============================================
	// Replay Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryReplay,
		Message:  "Scenario expectations failed",
		Detail:   "At least one step produced a different decision than expected.",
	},
	"E141": {
		Category: CategoryReplay,
		Message:  "Read failed",
		Detail:   "A path listed in a render step could not be read from the state.",
	},

	// ============================================
	// CLI Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

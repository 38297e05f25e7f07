package lens

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Delimiter separates keys in the string form of a Path.
const Delimiter = "."

// Key identifies one step in a Path.
// Valid keys are strings, ints and *Symbol values. Other comparable values
// are accepted for maps keyed by those types.
type Key = any

// Symbol is a key with identity semantics. Two symbols are the same key only
// if they are the same pointer, regardless of name.
type Symbol struct {
	name     string
	id       uint64
	reserved bool
}

var symbolSeq atomic.Uint64

// NewSymbol creates a new unique symbol. The name is used for display only;
// the joined form carries a per-process id so equally named symbols differ.
func NewSymbol(name string) *Symbol {
	return &Symbol{name: name, id: symbolSeq.Add(1)}
}

// Name returns the display name of the symbol.
func (s *Symbol) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// String returns the symbol as it appears in a joined path: "@name#id", or
// "@name" for the built-in keys.
func (s *Symbol) String() string {
	if s == nil {
		return "@nil"
	}
	name := s.name
	if strings.ContainsAny(name, Delimiter+`#"`) {
		name = strconv.Quote(name)
	}
	if s.reserved {
		return "@" + name
	}
	return "@" + name + "#" + strconv.FormatUint(s.id, 10)
}

var (
	// EmptyKey resolves to true when the container has no own keys.
	EmptyKey = &Symbol{name: "empty", reserved: true}

	// LenKey resolves to the number of own keys (or elements) of the container.
	LenKey = &Symbol{name: "len", reserved: true}
)

// Path is an ordered sequence of keys.
type Path []Key

// Append returns a new path with key appended. The receiver is never
// modified, so sibling paths built from the same prefix stay independent.
func (p Path) Append(key Key) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// String joins the path with Delimiter. The encoding is one-to-one: string
// keys that could be mistaken for another key kind are quoted, so ["a.b"]
// and ["a", "b"], or "1" and 1, produce different strings.
func (p Path) String() string {
	return Join(p...)
}

// Join returns the string form of the given keys.
func Join(keys ...Key) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = formatKey(k)
	}
	return strings.Join(parts, Delimiter)
}

// formatKey renders one key. Ints are bare digits, symbols start with '@'
// and any other key type is tagged "#type(value)". Strings that would read
// as one of those are quoted.
func formatKey(k Key) string {
	switch v := k.(type) {
	case string:
		if needsQuote(v) {
			return strconv.Quote(v)
		}
		return v
	case *Symbol:
		return v.String()
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("#%T(%#v)", v, v)
	}
}

func needsQuote(s string) bool {
	if s == "" || strings.Contains(s, Delimiter) {
		return true
	}
	switch s[0] {
	case '@', '#', '"':
		return true
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

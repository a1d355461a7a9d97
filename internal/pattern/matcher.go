package pattern

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// InvalidPatternError is returned when a glob cannot be compiled
type InvalidPatternError struct {
	Pattern string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern: %q", e.Pattern)
}

// Matcher tests package names against a fixed set of glob patterns.
// Names such as "@scope/name" are matched with "/" as a path separator,
// so "@types/*" matches "@types/node" but not "@types".
type Matcher struct {
	globs []string
}

// Compile validates every glob once and returns a Matcher for them
func Compile(globs []string) (*Matcher, error) {
	if len(globs) == 0 {
		return nil, fmt.Errorf("at least one glob pattern is required")
	}

	compiled := make([]string, 0, len(globs))
	for _, glob := range globs {
		glob = strings.TrimSpace(glob)
		if glob == "" || !doublestar.ValidatePattern(glob) {
			return nil, &InvalidPatternError{Pattern: glob}
		}
		compiled = append(compiled, glob)
	}

	return &Matcher{globs: compiled}, nil
}

// Matches reports whether name satisfies at least one pattern
func (m *Matcher) Matches(name string) bool {
	for _, glob := range m.globs {
		// patterns were validated in Compile, Match cannot fail here
		if ok, _ := doublestar.Match(glob, name); ok {
			return true
		}
	}
	return false
}

// Filter returns the names that match, preserving their order
func (m *Matcher) Filter(names []string) []string {
	matched := make([]string, 0, len(names))
	for _, name := range names {
		if m.Matches(name) {
			matched = append(matched, name)
		}
	}
	return matched
}

// Globs returns the patterns the matcher was compiled from
func (m *Matcher) Globs() []string {
	return append([]string(nil), m.globs...)
}

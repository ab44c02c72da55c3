package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// Rule pairs a compiled pattern with the action taken when it matches.
// Patterns are anchored at the scan position, never at the line start;
// a leading ^ in the source pattern instead marks the rule line-start only.
type Rule struct {
	// Name is a diagnostic label carried into error messages.
	Name string

	// Pattern matches at an exact offset within the line. Never nil.
	Pattern *regexp2.Regexp

	// PatternText is the source pattern as written, for the codec and
	// diagnostics.
	PatternText string

	// LineStartOnly restricts the rule to scan position 0.
	LineStartOnly bool

	// Action is taken when the pattern matches.
	Action Action
}

// ErrBadPattern indicates a rule pattern failed to compile.
var ErrBadPattern = errors.New("bad rule pattern")

// CompileRule compiles a source pattern into an anchored Rule. A leading ^
// is stripped and recorded as LineStartOnly. The pattern is wrapped in a
// \G-anchored non-capturing group so matching at an offset cannot drift
// forward, while lookbehind assertions still see the full preceding line.
func CompileRule(name, pattern string, lineStartOnly bool, action Action, ignoreCase bool) (Rule, error) {
	src := pattern
	if strings.HasPrefix(src, "^") {
		src = src[1:]
		lineStartOnly = true
	}

	opts := regexp2.None
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(`\G(?:`+src+`)`, opts)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", ErrBadPattern, name, err)
	}

	return Rule{
		Name:          name,
		Pattern:       re,
		PatternText:   pattern,
		LineStartOnly: lineStartOnly,
		Action:        action,
	}, nil
}

package grammar

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"
)

// GuardKind discriminates how a case branch's guard is evaluated.
type GuardKind uint8

// Guard kinds.
const (
	// GuardDefault always holds; it terminates a branch list.
	GuardDefault GuardKind = iota

	// GuardRegex holds when the precompiled pattern matches the subject.
	GuardRegex

	// GuardIn holds when the subject is a member of a named attribute set.
	GuardIn

	// GuardEq holds when the subject equals a literal value.
	GuardEq

	// GuardEOS holds when the match ended exactly at end of line.
	GuardEOS
)

// Guard is a data-only case condition: a discriminator plus the precompiled
// pattern, set name, or literal it tests, and a subject selector. Guards hold
// no executable closures, so a Grammar remains fully serializable.
type Guard struct {
	Kind GuardKind

	// Subject is a $-substitution template selecting what is tested;
	// empty means the whole matched text.
	Subject string

	// Negate inverts the guard's result.
	Negate bool

	// Pattern is the compiled test for GuardRegex.
	Pattern *regexp2.Regexp

	// PatternText is the source pattern for the codec and diagnostics.
	PatternText string

	// Set is the attribute set name for GuardIn.
	Set string

	// Value is the literal for GuardEq.
	Value string
}

// ErrBadGuard indicates a guard could not be compiled or evaluated.
var ErrBadGuard = errors.New("bad case guard")

// RegexGuard compiles a regex guard against the given pattern.
func RegexGuard(subject, pattern string, negate bool) (Guard, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return Guard{}, fmt.Errorf("%w: %v", ErrBadGuard, err)
	}
	return Guard{Kind: GuardRegex, Subject: subject, Negate: negate, Pattern: re, PatternText: pattern}, nil
}

// InGuard builds an attribute-membership guard.
func InGuard(subject, set string, negate bool) Guard {
	return Guard{Kind: GuardIn, Subject: subject, Negate: negate, Set: set}
}

// EqGuard builds an equality guard.
func EqGuard(subject, value string, negate bool) Guard {
	return Guard{Kind: GuardEq, Subject: subject, Negate: negate, Value: value}
}

// DefaultGuard builds the always-true guard.
func DefaultGuard() Guard {
	return Guard{Kind: GuardDefault}
}

// Eval dispatches the guard against a concrete match. The subject template is
// expanded against the matched text, capture groups, and current state; eol
// reports whether the match ended at end of line.
func (gd Guard) Eval(g *Grammar, matched string, groups []string, state string, eol bool) (bool, error) {
	var held bool

	switch gd.Kind {
	case GuardDefault:
		return true, nil
	case GuardEOS:
		held = eol
	case GuardRegex:
		m, err := gd.Pattern.MatchString(gd.subject(matched, groups, state))
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadGuard, err)
		}
		held = m
	case GuardIn:
		held = g.InAttribute(gd.Set, gd.subject(matched, groups, state))
	case GuardEq:
		held = g.textEqual(gd.Value, gd.subject(matched, groups, state))
	default:
		return false, fmt.Errorf("%w: unknown kind %d", ErrBadGuard, gd.Kind)
	}

	if gd.Negate {
		held = !held
	}
	return held, nil
}

func (gd Guard) subject(matched string, groups []string, state string) string {
	if gd.Subject == "" {
		return matched
	}
	return Substitute(gd.Subject, matched, groups, state)
}

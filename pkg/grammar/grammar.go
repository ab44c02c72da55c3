// Package grammar defines the compiled grammar model consumed by the tokenizer:
// named states holding ordered rule lists, bracket definitions, attribute word
// sets, and the action/guard shapes rules resolve to. A Grammar is immutable
// after construction and may be shared freely across tokenization sessions.
package grammar

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxStackDepth bounds state-stack growth for grammars that push
// without bound. Exceeding it is a fatal tokenization error.
const DefaultMaxStackDepth = 100

// Grammar is a compiled rule table. All fields are read-only after compile.
type Grammar struct {
	// Name identifies the grammar (diagnostic and registry key).
	Name string

	// Start is the initial state for line 0 of a fresh document.
	Start string

	// DefaultToken is the token type emitted for input no rule matches.
	DefaultToken string

	// IgnoreCase makes rule patterns and attribute membership
	// case-insensitive.
	IgnoreCase bool

	// MaxStackDepth overrides DefaultMaxStackDepth when positive.
	MaxStackDepth int

	// States maps state names to their ordered rule lists.
	States map[string][]Rule

	// Brackets resolves the @brackets token placeholder.
	Brackets []Bracket

	// Attributes holds named word sets referenced by membership guards.
	Attributes map[string][]string
}

// Bracket pairs an opening and closing text with the token type both resolve to.
type Bracket struct {
	Open  string
	Close string
	Token string
}

// BracketSide reports which side of a bracket pair a matched text hit.
type BracketSide uint8

// Bracket sides.
const (
	BracketNone BracketSide = iota
	BracketOpen
	BracketClose
)

// ErrUndefinedState indicates a rule or lookup referenced a state the
// grammar does not define, even after dotted-prefix fallback. This is a
// grammar-consistency error and is always fatal to the tokenization.
var ErrUndefinedState = errors.New("undefined state")

// FindRules resolves a state name to its rule list. Dotted sub-state names
// fall back to their longest defined prefix: "comment.foo.bar" tries
// "comment.foo" then "comment". A validated grammar never fails here; a
// failure means the grammar itself is malformed.
func (g *Grammar) FindRules(state string) ([]Rule, error) {
	name := state
	for {
		if rules, ok := g.States[name]; ok {
			return rules, nil
		}
		dot := strings.LastIndexByte(name, '.')
		if dot < 0 {
			return nil, fmt.Errorf("%w: %q (grammar %q)", ErrUndefinedState, state, g.Name)
		}
		name = name[:dot]
	}
}

// HasState reports whether the state name resolves, using the same
// dotted-prefix fallback as FindRules.
func (g *Grammar) HasState(state string) bool {
	_, err := g.FindRules(state)
	return err == nil
}

// EffectiveMaxStackDepth returns the configured stack bound, defaulted.
func (g *Grammar) EffectiveMaxStackDepth() int {
	if g.MaxStackDepth > 0 {
		return g.MaxStackDepth
	}
	return DefaultMaxStackDepth
}

// BracketFor looks up the bracket definition whose open or close text equals
// the matched text. Comparison honors IgnoreCase.
func (g *Grammar) BracketFor(text string) (Bracket, BracketSide) {
	for _, b := range g.Brackets {
		if g.textEqual(b.Open, text) {
			return b, BracketOpen
		}
		if g.textEqual(b.Close, text) {
			return b, BracketClose
		}
	}
	return Bracket{}, BracketNone
}

// InAttribute reports whether word is a member of the named attribute set.
// Membership honors IgnoreCase. An unknown set name is simply empty.
func (g *Grammar) InAttribute(set, word string) bool {
	for _, w := range g.Attributes[set] {
		if g.textEqual(w, word) {
			return true
		}
	}
	return false
}

func (g *Grammar) textEqual(a, b string) bool {
	if g.IgnoreCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

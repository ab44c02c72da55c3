package grammar

import (
	"strings"
)

// Special token and transition sentinels understood by the tokenizer.
const (
	// TokenRematch discards the match's consumption, keeping only its
	// side effects, and re-scans from the same position.
	TokenRematch = "@rematch"

	// TokenBrackets resolves the token type through the grammar's
	// bracket definitions. A suffix after the sentinel is appended to
	// the resolved bracket token.
	TokenBrackets = "@brackets"

	// NextPush duplicates the current state on the stack.
	NextPush = "@push"
	// NextPop pops the current state.
	NextPop = "@pop"
	// NextPopAll collapses the stack to its bottom state.
	NextPopAll = "@popall"

	// EmbedPop closes the currently open embedded-language span.
	EmbedPop = "@pop"
)

// ActionKind discriminates the three action shapes a rule may carry.
type ActionKind uint8

// Action shapes.
const (
	// ActionToken emits (at most) one token, with optional transition,
	// embedding, step-back, directive, and log side effects.
	ActionToken ActionKind = iota

	// ActionGroup splits the match's capture groups into one sub-action
	// each, replayed left to right.
	ActionGroup

	// ActionCase selects between branches by evaluating ordered guards
	// against the matched text at tokenize time.
	ActionCase
)

// Action is the tagged union of shapes enumerated by ActionKind. Exactly one
// shape is populated; unrelated fields are zero.
type Action struct {
	Kind ActionKind

	// ActionToken fields.

	// Token is the token type to emit. It may be a sentinel
	// (TokenRematch, TokenBrackets...), an @-prefixed suppressed scope,
	// or contain $-substitutions.
	Token string

	// Next is a state transition applied after the match: NextPush,
	// NextPop, NextPopAll, or a state name to push. Mutually exclusive
	// with Switch.
	Next string

	// Switch replaces the top of the state stack in place.
	Switch string

	// GoBack rewinds the scan position by this many characters.
	GoBack int

	// NestLanguage opens an embedded-language span (a language name,
	// possibly with $-substitutions) or closes one (EmbedPop).
	NestLanguage string

	// Directive attaches tree open/close instructions to the token.
	Directive *Directive

	// Log emits a debug record (after $-substitution) when the rule fires.
	Log string

	// ActionGroup fields.

	// Subs holds one action per capture group, in group order.
	Subs []Action

	// ActionCase fields.

	// Branches are evaluated in order; the first guard that holds
	// supplies the effective action. A GuardDefault branch always holds.
	Branches []CaseBranch
}

// CaseBranch pairs a guard with the action taken when it holds.
type CaseBranch struct {
	Guard  Guard
	Action Action
}

// Directive carries tree-nesting instructions attached to a token.
// Open/Close are exclusive (the token stays outside the named scope);
// Start/End are inclusive (the token is folded into the scope).
type Directive struct {
	Open  []string
	Start []string
	Close []string
	End   []string
}

// Empty reports whether the directive carries no instructions.
func (d *Directive) Empty() bool {
	return d == nil ||
		len(d.Open) == 0 && len(d.Start) == 0 && len(d.Close) == 0 && len(d.End) == 0
}

// TokenAct builds a plain token-emitting action.
func TokenAct(token string) Action {
	return Action{Kind: ActionToken, Token: token}
}

// GroupAct builds a group action with one sub-action per capture group.
func GroupAct(subs ...Action) Action {
	return Action{Kind: ActionGroup, Subs: subs}
}

// CaseAct builds a case action from ordered branches.
func CaseAct(branches ...CaseBranch) Action {
	return Action{Kind: ActionCase, Branches: branches}
}

// Substitute expands $-references in a template against a concrete match:
//
//	$$   literal $
//	$#   the whole matched text
//	$n   capture group n (0 is the whole match; empty when the group
//	     did not participate)
//	$S0  the whole current state name
//	$Sn  the nth dotted segment of the current state (1-based)
//
// Unknown references are preserved verbatim.
func Substitute(template, matched string, groups []string, state string) string {
	if !strings.ContainsRune(template, '$') {
		return template
	}

	var sb strings.Builder
	sb.Grow(len(template))

	runes := []rune(template)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '$' || i+1 >= len(runes) {
			sb.WriteRune(runes[i])
			continue
		}
		next := runes[i+1]
		switch {
		case next == '$':
			sb.WriteByte('$')
			i++
		case next == '#':
			sb.WriteString(matched)
			i++
		case next >= '0' && next <= '9':
			n := int(next - '0')
			if n < len(groups) {
				sb.WriteString(groups[n])
			}
			i++
		case next == 'S' && i+2 < len(runes) && runes[i+2] >= '0' && runes[i+2] <= '9':
			n := int(runes[i+2] - '0')
			sb.WriteString(stateSegment(state, n))
			i += 2
		default:
			sb.WriteRune(runes[i])
		}
	}
	return sb.String()
}

// stateSegment returns the whole state for n == 0, otherwise the nth
// dot-delimited segment (1-based), or "" when out of range.
func stateSegment(state string, n int) string {
	if n == 0 {
		return state
	}
	segs := strings.Split(state, ".")
	if n > len(segs) {
		return ""
	}
	return segs[n-1]
}

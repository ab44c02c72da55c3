package tokenizer

import "errors"

// Tokenization error taxonomy. Every error here is a grammar-consistency or
// invariant violation: the compiled grammar itself is malformed, not the
// input text. All are fatal to the current tokenization attempt and are
// propagated with the offending rule and state names attached; none is ever
// silently recovered, since rerunning deterministic matching against the
// same input cannot succeed differently.
var (
	// ErrIllegalPop is returned for @pop on a depth-1 stack.
	ErrIllegalPop = errors.New("cannot pop: state stack at depth 1")

	// ErrStackOverflow is returned when a push exceeds the grammar's
	// maximum stack depth, guarding runaway self-pushing grammars.
	ErrStackOverflow = errors.New("maximum state stack depth exceeded")

	// ErrEmbeddedConflict is returned for inconsistent embedded-span
	// control: closing with no span open, or opening over an open span.
	ErrEmbeddedConflict = errors.New("inconsistent embedded language nesting")

	// ErrMalformedGroup is returned when a group action's sub-action
	// count does not match the capture-group count, or the captured
	// texts do not tile the full match.
	ErrMalformedGroup = errors.New("malformed group rule")

	// ErrNestedGroup is returned when a group match starts while an
	// earlier group's sub-actions are still draining.
	ErrNestedGroup = errors.New("group match while group replay in progress")

	// ErrNoProgress is returned when a match consumes no input and
	// changes no observable state, which would otherwise loop forever.
	ErrNoProgress = errors.New("no progress: empty match changed no state")

	// ErrMissingBracket is returned when an @brackets token has no
	// bracket definition for the matched text.
	ErrMissingBracket = errors.New("no bracket definition for matched text")

	// ErrNoResult is returned when an action resolves to no
	// well-defined result.
	ErrNoResult = errors.New("action resolved to no result")
)

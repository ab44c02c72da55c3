package tokenizer

import "github.com/yaklabco/gosyntax/pkg/grammar"

// Token is one classified span of a line. Offsets are rune offsets relative
// to the line start. Every ordinary token satisfies Start < End; zero-width
// tokens occur only as directive placeholders and embedded splice sentinels.
type Token struct {
	// Type is the token type name. Empty means "no visible token".
	Type string

	// Start is the rune offset where the token begins (inclusive).
	Start int

	// End is the rune offset where the token ends (exclusive).
	End int

	// Directive carries tree open/close instructions, if any.
	Directive *grammar.Directive

	// Language marks an embedded-language splice sentinel when non-empty.
	// Sentinel tokens are zero-width; the tree assembler replaces them
	// with the delegate-built subtree for the span opened here.
	Language string
}

// Len returns the token's width in runes.
func (t Token) Len() int {
	return t.End - t.Start
}

// IsSentinel reports whether the token marks an embedded-language
// nesting point.
func (t Token) IsSentinel() bool {
	return t.Language != ""
}

// mergeable reports whether a new token with the given shape may be folded
// into t: identical type, both free of directives and sentinels, and
// touching boundaries. Stack equality is checked by the engine.
func (t Token) mergeable(typ string, start int, directive *grammar.Directive) bool {
	return t.Type == typ &&
		t.Language == "" &&
		t.Directive.Empty() &&
		directive.Empty() &&
		t.End == start
}

// EmbeddedSpan is a finalized embedded-language sub-range: which language
// owns it, how many lines back it opened, and its start and end columns.
// Spans are reported on the line where they close; a span still open at end
// of input is finalized by the session at the end of the document.
type EmbeddedSpan struct {
	// Language is the embedded language name.
	Language string

	// OriginLineOffset counts lines back to the line where the span
	// opened (0 = same line it closed on).
	OriginLineOffset int

	// StartColumn is the rune column on the origin line where the
	// embedded text begins.
	StartColumn int

	// EndColumn is the rune column on the closing line where the
	// embedded text ends.
	EndColumn int
}

// LineResult is the outcome of tokenizing one line. The state stack passed
// to TokenizeLine is mutated in place and becomes the next line's starting
// stack.
type LineResult struct {
	// Tokens is the ordered token list for the line.
	Tokens []Token

	// ClosedSpans lists embedded spans that closed on this line.
	ClosedSpans []EmbeddedSpan
}

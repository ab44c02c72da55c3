package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gosyntax/pkg/grammar"
)

func TestGuard_Eval(t *testing.T) {
	t.Parallel()
	g := testGrammar(t)

	hexGuard, err := grammar.RegexGuard("", `^0[xX]`, false)
	require.NoError(t, err)
	notHexGuard, err := grammar.RegexGuard("", `^0[xX]`, true)
	require.NoError(t, err)
	groupGuard, err := grammar.RegexGuard("$1", `^\d+$`, false)
	require.NoError(t, err)

	tests := []struct {
		name    string
		guard   grammar.Guard
		matched string
		groups  []string
		state   string
		eol     bool
		want    bool
	}{
		{name: "default always holds", guard: grammar.DefaultGuard(), matched: "anything", want: true},
		{name: "regex holds", guard: hexGuard, matched: "0xFF", want: true},
		{name: "regex fails", guard: hexGuard, matched: "42", want: false},
		{name: "negated regex", guard: notHexGuard, matched: "42", want: true},
		{name: "regex on group subject", guard: groupGuard, matched: "a=1", groups: []string{"a=1", "1"}, want: true},
		{name: "in holds", guard: grammar.InGuard("", "keywords", false), matched: "if", want: true},
		{name: "in fails", guard: grammar.InGuard("", "keywords", false), matched: "while", want: false},
		{name: "negated in", guard: grammar.InGuard("", "keywords", true), matched: "while", want: true},
		{name: "eq holds", guard: grammar.EqGuard("", "end", false), matched: "end", want: true},
		{name: "eq fails", guard: grammar.EqGuard("", "end", false), matched: "End", want: false},
		{name: "eq on state subject", guard: grammar.EqGuard("$S1", "comment", false), matched: "x", state: "comment.doc", want: true},
		{name: "eos holds", guard: grammar.Guard{Kind: grammar.GuardEOS}, matched: "x", eol: true, want: true},
		{name: "eos fails", guard: grammar.Guard{Kind: grammar.GuardEOS}, matched: "x", eol: false, want: false},
		{name: "negated eos", guard: grammar.Guard{Kind: grammar.GuardEOS, Negate: true}, matched: "x", eol: false, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			held, err := tt.guard.Eval(g, tt.matched, tt.groups, tt.state, tt.eol)
			require.NoError(t, err)
			assert.Equal(t, tt.want, held)
		})
	}
}

func TestGuard_EvalIgnoreCase(t *testing.T) {
	t.Parallel()
	g := testGrammar(t)
	g.IgnoreCase = true

	held, err := grammar.EqGuard("", "end", false).Eval(g, "END", nil, "", false)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = grammar.InGuard("", "keywords", false).Eval(g, "RETURN", nil, "", false)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestRegexGuard_BadPattern(t *testing.T) {
	t.Parallel()

	_, err := grammar.RegexGuard("", `(unclosed`, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, grammar.ErrBadGuard)
}

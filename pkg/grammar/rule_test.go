package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gosyntax/pkg/grammar"
)

func TestCompileRule(t *testing.T) {
	t.Parallel()

	t.Run("plain pattern", func(t *testing.T) {
		r, err := grammar.CompileRule("word", `\w+`, false, grammar.TokenAct("identifier"), false)
		require.NoError(t, err)
		assert.Equal(t, `\w+`, r.PatternText)
		assert.False(t, r.LineStartOnly)
	})

	t.Run("leading caret marks line start only", func(t *testing.T) {
		r, err := grammar.CompileRule("heading", `^#+`, false, grammar.TokenAct("heading"), false)
		require.NoError(t, err)
		assert.True(t, r.LineStartOnly)
		assert.Equal(t, `^#+`, r.PatternText)
	})

	t.Run("explicit line start flag", func(t *testing.T) {
		r, err := grammar.CompileRule("indent", `\s+`, true, grammar.TokenAct("whitespace"), false)
		require.NoError(t, err)
		assert.True(t, r.LineStartOnly)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := grammar.CompileRule("broken", `(unclosed`, false, grammar.TokenAct("x"), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, grammar.ErrBadPattern)
	})
}

func TestCompileRule_AnchoredMatching(t *testing.T) {
	t.Parallel()

	r, err := grammar.CompileRule("digits", `\d+`, false, grammar.TokenAct("number"), false)
	require.NoError(t, err)

	runes := []rune("ab123cd")

	// At the digit run the pattern matches in place.
	m, err := r.Pattern.FindRunesMatchStartingAt(runes, 2)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Index)
	assert.Equal(t, "123", m.String())

	// Anchoring forbids drifting forward to a later match.
	m, err = r.Pattern.FindRunesMatchStartingAt(runes, 0)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCompileRule_IgnoreCase(t *testing.T) {
	t.Parallel()

	r, err := grammar.CompileRule("kw", `select`, false, grammar.TokenAct("keyword"), true)
	require.NoError(t, err)

	m, err := r.Pattern.FindRunesMatchStartingAt([]rune("SELECT"), 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "SELECT", m.String())
}

func TestCompileRule_LookbehindSeesPrecedingText(t *testing.T) {
	t.Parallel()

	r, err := grammar.CompileRule("unit", `(?<=\d)px`, false, grammar.TokenAct("unit"), false)
	require.NoError(t, err)

	m, err := r.Pattern.FindRunesMatchStartingAt([]rune("10px"), 2)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Index)

	m, err = r.Pattern.FindRunesMatchStartingAt([]rune("xxpx"), 2)
	require.NoError(t, err)
	assert.Nil(t, m)
}

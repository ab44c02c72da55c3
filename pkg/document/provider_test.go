package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gosyntax/pkg/document"
	"github.com/yaklabco/gosyntax/pkg/syntree"
)

func TestGrammarProvider_AdvanceReportsDone(t *testing.T) {
	t.Parallel()

	provider := document.NewGrammarProvider(mustGrammar(t, innerGrammarYAML), nil)

	t.Run("single line", func(t *testing.T) {
		t.Parallel()

		parse, err := provider.Begin(context.Background(), "inner", "ab", 0, syntree.NewInterner())
		require.NoError(t, err)

		done, err := parse.Advance()
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("two lines", func(t *testing.T) {
		t.Parallel()

		parse, err := provider.Begin(context.Background(), "inner", "a\nb", 0, syntree.NewInterner())
		require.NoError(t, err)

		done, err := parse.Advance()
		require.NoError(t, err)
		assert.False(t, done)

		done, err = parse.Advance()
		require.NoError(t, err)
		assert.True(t, done)

		// Exhausted input stays done.
		done, err = parse.Advance()
		require.NoError(t, err)
		assert.True(t, done)
	})
}

func TestGrammarProvider_AdvanceHonorsContext(t *testing.T) {
	t.Parallel()

	provider := document.NewGrammarProvider(mustGrammar(t, innerGrammarYAML), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parse, err := provider.Begin(ctx, "inner", "ab", 0, syntree.NewInterner())
	require.NoError(t, err)

	_, err = parse.Advance()
	require.ErrorIs(t, err, context.Canceled)
}

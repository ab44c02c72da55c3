package embedded_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gosyntax/pkg/embedded"
	"github.com/yaklabco/gosyntax/pkg/syntree"
)

func TestChromaProvider(t *testing.T) {
	t.Parallel()

	r := embedded.NewRegistry()
	r.SetFallback(embedded.ChromaProvider{})
	in := syntree.NewInterner()

	text := "package main"
	root, err := r.Run(context.Background(), "go", text, 0, in)
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.Equal(t, "go", in.Name(root.Type))
	assert.Equal(t, 0, root.Start)
	assert.Equal(t, len([]rune(text)), root.End)
	require.True(t, root.HasChildren())

	// Leaves tile the span in order with chroma-scoped types.
	pos := 0
	for child := root.FirstChild; child != nil; child = child.Next {
		assert.Equal(t, pos, child.Start)
		assert.Greater(t, child.End, child.Start)
		assert.True(t, strings.HasPrefix(in.Name(child.Type), "chroma."))
		assert.True(t, child.IsLeaf())
		pos = child.End
	}
	assert.Equal(t, root.End, pos)
}

func TestChromaProvider_BaseOffset(t *testing.T) {
	t.Parallel()

	in := syntree.NewInterner()
	parse, err := embedded.ChromaProvider{}.Begin(context.Background(), "css", "a{}", 40, in)
	require.NoError(t, err)

	for {
		done, err := parse.Advance()
		require.NoError(t, err)
		if done {
			break
		}
	}

	root := parse.ForceFinish()
	assert.Equal(t, 40, root.Start)
	assert.Equal(t, 43, root.End)
	require.True(t, root.HasChildren())
	assert.Equal(t, 40, root.FirstChild.Start)
}

func TestChromaProvider_UnknownLanguageFallsBack(t *testing.T) {
	t.Parallel()

	in := syntree.NewInterner()
	parse, err := embedded.ChromaProvider{}.Begin(context.Background(), "no-such-language", "plain words", 0, in)
	require.NoError(t, err)

	for {
		done, err := parse.Advance()
		require.NoError(t, err)
		if done {
			break
		}
	}

	root := parse.ForceFinish()
	require.NotNil(t, root)
	assert.Equal(t, len("plain words"), root.End)
}

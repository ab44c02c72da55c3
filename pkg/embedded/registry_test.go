package embedded_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gosyntax/pkg/embedded"
	"github.com/yaklabco/gosyntax/pkg/syntree"
)

// stubProvider builds a single-node subtree in a fixed number of steps.
type stubProvider struct {
	steps int
}

func (p *stubProvider) Begin(_ context.Context, language, text string, base int, in *syntree.Interner) (embedded.PartialParse, error) {
	return &stubParse{
		remaining: p.steps,
		node:      syntree.NewNode(in.Intern("stub."+embedded.Normalize(language)), base, base+len([]rune(text))),
	}, nil
}

type stubParse struct {
	remaining int
	node      *syntree.Node
}

func (p *stubParse) Advance() (bool, error) {
	p.remaining--
	return p.remaining <= 0, nil
}

func (p *stubParse) ForceFinish() *syntree.Node {
	return p.node
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "canonical name", in: "go", want: "go"},
		{name: "alias", in: "golang", want: "go"},
		{name: "case folded", in: "JavaScript", want: "javascript"},
		{name: "js alias", in: "js", want: "javascript"},
		{name: "unknown lowercased", in: "MyLang", want: "mylang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, embedded.Normalize(tt.in))
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	r := embedded.NewRegistry()
	p := &stubProvider{steps: 1}
	r.Register("golang", p)

	// Registration and lookup meet through alias normalization.
	got, err := r.Resolve("Go")
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = r.Resolve("fortran")
	require.Error(t, err)
	assert.ErrorIs(t, err, embedded.ErrNoProvider)
}

func TestRegistry_Fallback(t *testing.T) {
	t.Parallel()

	r := embedded.NewRegistry()
	fb := &stubProvider{steps: 1}
	r.SetFallback(fb)

	got, err := r.Resolve("anything")
	require.NoError(t, err)
	assert.Same(t, fb, got)
}

func TestRegistry_Run(t *testing.T) {
	t.Parallel()

	r := embedded.NewRegistry()
	r.Register("css", &stubProvider{steps: 3})
	in := syntree.NewInterner()

	node, err := r.Run(context.Background(), "css", "color: red", 5, in)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "stub.css", in.Name(node.Type))
	assert.Equal(t, 5, node.Start)
	assert.Equal(t, 15, node.End)
}

func TestRegistry_RunCancelled(t *testing.T) {
	t.Parallel()

	r := embedded.NewRegistry()
	r.Register("css", &stubProvider{steps: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "css", "x", 0, syntree.NewInterner())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

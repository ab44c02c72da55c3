package document

import (
	"context"

	"github.com/yaklabco/gosyntax/pkg/embedded"
	"github.com/yaklabco/gosyntax/pkg/grammar"
	"github.com/yaklabco/gosyntax/pkg/syntree"
)

// GrammarProvider parses embedded spans with a full compiled grammar,
// producing the same tree structure as a top-level document. Registering
// one per language lets grammars nest each other (HTML hosting CSS hosting
// nothing, say) through the shared registry.
type GrammarProvider struct {
	grammar  *grammar.Grammar
	registry *embedded.Registry
}

var _ embedded.Provider = (*GrammarProvider)(nil)

// NewGrammarProvider wraps a compiled grammar as an embedded-language
// provider. The registry is used to resolve the grammar's own nested
// spans; nil disables further nesting.
func NewGrammarProvider(g *grammar.Grammar, registry *embedded.Registry) *GrammarProvider {
	return &GrammarProvider{grammar: g, registry: registry}
}

// Begin starts a resumable parse of the span text.
func (p *GrammarProvider) Begin(ctx context.Context, language, text string, base int, in *syntree.Interner) (embedded.PartialParse, error) {
	session := NewSession(p.grammar, Options{
		Registry: p.registry,
		Interner: in,
	})
	session.SetText(text)
	return &grammarParse{ctx: ctx, session: session, base: base}, nil
}

// grammarParse tokenizes one line per Advance call so the registry's run
// loop can observe cancellation between lines. The context from Begin also
// bounds work within a line.
type grammarParse struct {
	ctx     context.Context
	session *Session
	base    int
	next    int
}

func (p *grammarParse) Advance() (bool, error) {
	if p.next >= p.session.LineCount() {
		return true, nil
	}
	if _, err := p.session.TokenizeThrough(p.ctx, p.next); err != nil {
		return false, err
	}
	p.next++
	return p.next >= p.session.LineCount(), nil
}

func (p *grammarParse) ForceFinish() *syntree.Node {
	root, err := p.session.BuildTree(p.ctx)
	if err != nil || root == nil {
		return nil
	}
	if p.base != 0 {
		syntree.Shift(root, p.base)
	}
	return root
}

package embedded

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/yaklabco/gosyntax/pkg/syntree"
)

// ChromaProvider is a fallback delegate for languages with no native
// grammar: a chroma lexer tokenizes the span into a flat, leaf-only
// subtree. It loses nesting but keeps every character classified.
type ChromaProvider struct{}

// Begin starts a chroma-backed parse of the span. The chroma iterator is
// driven synchronously per Advance step, so the context is not retained.
func (ChromaProvider) Begin(_ context.Context, language, text string, base int, in *syntree.Interner) (PartialParse, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return nil, fmt.Errorf("chroma tokenise %q: %w", language, err)
	}

	root := syntree.NewNode(in.Intern(Normalize(language)), base, base+len([]rune(text)))
	return &chromaParse{
		iterator: iterator,
		interner: in,
		root:     root,
		pos:      base,
	}, nil
}

// chromaParse drains the chroma iterator one token per Advance step.
type chromaParse struct {
	iterator chroma.Iterator
	interner *syntree.Interner
	root     *syntree.Node
	pos      int
}

// Advance consumes the next chroma token, appending it as a leaf.
func (p *chromaParse) Advance() (bool, error) {
	tok := p.iterator()
	if tok == chroma.EOF {
		return true, nil
	}

	width := len([]rune(tok.Value))
	if width > 0 {
		typ := p.interner.Intern("chroma." + strings.ToLower(tok.Type.String()))
		syntree.AppendChild(p.root, syntree.NewNode(typ, p.pos, p.pos+width))
		p.pos += width
	}
	return false, nil
}

// ForceFinish returns the leaf-only subtree built so far.
func (p *chromaParse) ForceFinish() *syntree.Node {
	return p.root
}

// Package embedded resolves embedded-language spans to delegate parsers.
// The core tokenizer only defines a span's text boundaries; this package
// maps the span's language name to a provider that builds the subtree
// spliced in at the span's nesting point, caching built subtrees by span
// content.
package embedded

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/yaklabco/gosyntax/internal/logging"
	"github.com/yaklabco/gosyntax/pkg/syntree"
)

// PartialParse is an in-progress embedded parse, driven one discrete step
// at a time so the host can interleave it with other work.
type PartialParse interface {
	// Advance consumes one step of input. done reports whether the
	// whole span has been consumed.
	Advance() (done bool, err error)

	// ForceFinish assembles and returns the subtree for everything
	// consumed so far. Safe to call before Advance reports done.
	ForceFinish() *syntree.Node
}

// Provider starts parses for spans of one (or any) language.
type Provider interface {
	// Begin starts a parse of text, which sits at absolute document
	// offset base. Type names are interned through in so the subtree
	// splices cleanly into the host tree. The context bounds the whole
	// parse, including work inside individual Advance steps.
	Begin(ctx context.Context, language, text string, base int, in *syntree.Interner) (PartialParse, error)
}

// ErrNoProvider indicates no provider is registered for a language and the
// registry has no fallback.
var ErrNoProvider = errors.New("no provider for language")

// Registry maps language names to providers. Names are normalized through
// go-enry's alias table, so "golang", "Go" and "go" resolve identically.
type Registry struct {
	providers map[string]Provider
	fallback  Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Normalize canonicalizes a language name via go-enry's alias table.
// Unknown names are lowercased as-is.
func Normalize(language string) string {
	if lang, ok := enry.GetLanguageByAlias(language); ok {
		return strings.ToLower(lang)
	}
	return strings.ToLower(language)
}

// Register binds a provider to a language name (and its aliases).
func (r *Registry) Register(language string, p Provider) {
	r.providers[Normalize(language)] = p
}

// SetFallback sets the provider used for languages with no registration.
func (r *Registry) SetFallback(p Provider) {
	r.fallback = p
}

// Resolve returns the provider for a language, falling back when none is
// registered.
func (r *Registry) Resolve(language string) (Provider, error) {
	if p, ok := r.providers[Normalize(language)]; ok {
		return p, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoProvider, language)
}

// Run resolves a language and runs the span's parse to completion,
// checking for cancellation between steps.
func (r *Registry) Run(ctx context.Context, language, text string, base int, in *syntree.Interner) (*syntree.Node, error) {
	p, err := r.Resolve(language)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("embedded parse",
		logging.FieldLanguage, Normalize(language))
	parse, err := p.Begin(ctx, language, text, base, in)
	if err != nil {
		return nil, fmt.Errorf("begin %q parse: %w", language, err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("embedded parse cancelled: %w", err)
		}
		done, err := parse.Advance()
		if err != nil {
			return nil, fmt.Errorf("embedded %q parse: %w", language, err)
		}
		if done {
			return parse.ForceFinish(), nil
		}
	}
}

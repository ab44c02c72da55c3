package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gosyntax/internal/logging"
	"github.com/yaklabco/gosyntax/pkg/embedded"
	"github.com/yaklabco/gosyntax/pkg/grammar"
	"github.com/yaklabco/gosyntax/pkg/syntree"
	"github.com/yaklabco/gosyntax/pkg/tokenizer"
)

// Options controls session behavior.
type Options struct {
	// Registry resolves embedded-language spans. Nil leaves embedded
	// regions as empty splice slots.
	Registry *embedded.Registry

	// Interner is shared with the host when it wants stable TypeIDs
	// across sessions. Nil creates a fresh one.
	Interner *syntree.Interner

	// Logger receives session diagnostics and rule log actions.
	// Nil uses the package default logger.
	Logger *log.Logger
}

// Stats reports what one TokenizeThrough pass actually did.
type Stats struct {
	// Retokenized counts lines that were (re)tokenized.
	Retokenized int

	// Revalidated counts lines whose cache entry was reused unchanged.
	Revalidated int
}

// Session is one document's tokenization state: the line texts, the
// per-line cache, and everything needed to assemble the tree. Sessions are
// not safe for concurrent use; the state stack is threaded linearly line
// to line.
type Session struct {
	tok      *tokenizer.Tokenizer
	lines    []string
	entries  []*tokenizer.CacheEntry
	interner *syntree.Interner
	registry *embedded.Registry
	subtrees *embedded.Cache
	logger   *log.Logger

	// clean is the number of leading lines whose cache entries are
	// known valid and correctly chained. Edits lower it; tokenization
	// passes raise it.
	clean int
}

// NewSession creates a session running the given compiled grammar.
func NewSession(g *grammar.Grammar, opts Options) *Session {
	in := opts.Interner
	if in == nil {
		in = syntree.NewInterner()
	}
	tok := tokenizer.New(g)
	if opts.Logger != nil {
		tok.SetLogger(opts.Logger)
	}
	return &Session{
		tok:      tok,
		lines:    []string{""},
		entries:  []*tokenizer.CacheEntry{nil},
		interner: in,
		registry: opts.Registry,
		subtrees: embedded.NewCache(),
		logger:   opts.Logger,
	}
}

// Grammar returns the compiled grammar the session runs.
func (s *Session) Grammar() *grammar.Grammar {
	return s.tok.Grammar()
}

// Interner returns the session's type-name interner.
func (s *Session) Interner() *syntree.Interner {
	return s.interner
}

// SetText replaces the whole document, discarding all cache entries.
func (s *Session) SetText(text string) {
	s.SetLines(SplitLines(text))
}

// SetLines replaces the whole document with pre-split lines.
func (s *Session) SetLines(lines []string) {
	if len(lines) == 0 {
		lines = []string{""}
	}
	s.lines = lines
	s.entries = make([]*tokenizer.CacheEntry, len(lines))
	s.clean = 0
}

// LineCount returns the number of lines in the document.
func (s *Session) LineCount() int {
	return len(s.lines)
}

// Line returns the text of line i.
func (s *Session) Line(i int) string {
	return s.lines[i]
}

// ReplaceLine swaps the text of line i. The line's cache entry stays in
// place and is revalidated (hash, length, incoming stack) on the next pass.
func (s *Session) ReplaceLine(i int, text string) error {
	if err := s.checkLine(i); err != nil {
		return err
	}
	s.lines[i] = text
	s.markDirty(i)
	return nil
}

// InsertLines inserts new lines before line i (i may equal LineCount to
// append). Cache entries below the insertion shift with their lines;
// relative embedded offsets keep them valid.
func (s *Session) InsertLines(i int, lines ...string) error {
	if i < 0 || i > len(s.lines) {
		return fmt.Errorf("insert at line %d of %d", i, len(s.lines))
	}
	s.lines = append(s.lines[:i], append(append([]string{}, lines...), s.lines[i:]...)...)
	blanks := make([]*tokenizer.CacheEntry, len(lines))
	s.entries = append(s.entries[:i], append(blanks, s.entries[i:]...)...)
	s.markDirty(i)
	return nil
}

// RemoveLines deletes n lines starting at line i.
func (s *Session) RemoveLines(i, n int) error {
	if err := s.checkLine(i); err != nil {
		return err
	}
	if n < 0 || i+n > len(s.lines) {
		return fmt.Errorf("remove %d lines at %d of %d", n, i, len(s.lines))
	}
	s.lines = append(s.lines[:i], s.lines[i+n:]...)
	s.entries = append(s.entries[:i], s.entries[i+n:]...)
	if len(s.lines) == 0 {
		s.SetLines(nil)
		return nil
	}
	s.markDirty(i)
	return nil
}

// TokenizeThrough brings lines 0..last up to date. Lines above the dirty
// watermark are skipped outright; from there each cached entry is
// revalidated against its incoming stack, length, and content hash, and
// retokenized only when any of those changed. Editing one line therefore
// costs the edited line plus cheap revalidation of its successors, not a
// whole-document pass.
func (s *Session) TokenizeThrough(ctx context.Context, last int) (Stats, error) {
	var stats Stats
	if last >= len(s.lines) {
		last = len(s.lines) - 1
	}
	if last < 0 {
		return stats, nil
	}

	start := 0
	prevEnd := tokenizer.NewStack(s.Grammar().Start).Key()
	if skip := min(s.clean, last+1); skip > 0 {
		prevEnd = s.entries[skip-1].EndKey
		start = skip
	}

	for i := start; i <= last; i++ {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("tokenize cancelled: %w", err)
		}

		line := s.lines[i]
		entry := s.entries[i]

		if entry != nil && !entry.Validate(line, prevEnd) {
			stats.Revalidated++
			prevEnd = entry.EndKey
			continue
		}

		stack, err := tokenizer.ParseKey(prevEnd)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", i, err)
		}
		result, err := s.tok.TokenizeLine(line, stack)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", i, err)
		}
		endKey := stack.Key()

		if entry == nil {
			s.entries[i] = tokenizer.NewCacheEntry(line, prevEnd, endKey, result)
		} else {
			entry.Update(line, prevEnd, endKey, result)
		}
		stats.Retokenized++
		prevEnd = endKey
	}

	if s.clean < last+1 {
		s.clean = last + 1
	}

	s.logFor(ctx).Debug("tokenize pass",
		logging.FieldGrammar, s.Grammar().Name,
		logging.FieldLines, last+1,
		logging.FieldRetokenized, stats.Retokenized,
		logging.FieldRevalidated, stats.Revalidated)
	return stats, nil
}

// Tokens returns the cached token list of line i, tokenizing through it
// first if needed.
func (s *Session) Tokens(ctx context.Context, i int) ([]tokenizer.Token, error) {
	if err := s.checkLine(i); err != nil {
		return nil, err
	}
	if _, err := s.TokenizeThrough(ctx, i); err != nil {
		return nil, err
	}
	return s.entries[i].Tokens, nil
}

// EndStack returns the serialized stack line i ends with, tokenizing
// through it first if needed.
func (s *Session) EndStack(ctx context.Context, i int) (*tokenizer.StateStack, error) {
	if err := s.checkLine(i); err != nil {
		return nil, err
	}
	if _, err := s.TokenizeThrough(ctx, i); err != nil {
		return nil, err
	}
	return tokenizer.ParseKey(s.entries[i].EndKey)
}

// BuildBuffer tokenizes the whole document and assembles the flat tree
// buffer, resolving embedded spans through the registry. A span still open
// at end of input is finalized at the end of the document rather than
// treated as an error.
func (s *Session) BuildBuffer(ctx context.Context) (*syntree.Buffer, error) {
	lastLine := len(s.lines) - 1
	if _, err := s.TokenizeThrough(ctx, lastLine); err != nil {
		return nil, err
	}

	offsets := lineOffsets(s.lines)
	docEnd := offsets[lastLine] + len([]rune(s.lines[lastLine]))

	spans, err := s.collectSpans(offsets, docEnd)
	if err != nil {
		return nil, err
	}

	asm := syntree.NewAssembler(s.interner)
	next := 0
	for i, entry := range s.entries {
		base := offsets[i]
		for _, tok := range entry.Tokens {
			abs := tok
			abs.Start += base
			abs.End += base

			if !tok.IsSentinel() {
				asm.Add(abs)
				continue
			}

			span := spanRange{language: tok.Language, start: abs.Start, end: abs.Start}
			if next < len(spans) {
				span = spans[next]
				next++
			}
			subtree, err := s.resolveSpan(ctx, span)
			if err != nil {
				return nil, err
			}
			asm.Splice(subtree, span.start, span.end)
		}
	}

	return asm.Finish(docEnd), nil
}

// BuildTree assembles the document's syntax tree. The root node's type is
// the grammar name, or "document" for unnamed grammars.
func (s *Session) BuildTree(ctx context.Context) (*syntree.Node, error) {
	buf, err := s.BuildBuffer(ctx)
	if err != nil {
		return nil, err
	}
	rootName := s.Grammar().Name
	if rootName == "" {
		rootName = "document"
	}
	return buf.Build(s.interner.Intern(rootName)), nil
}

// spanRange is one embedded span in absolute document coordinates.
type spanRange struct {
	language           string
	start, end         int
	startLine, endLine int
	startCol, endCol   int
}

// collectSpans lists all embedded spans in opening order: the closed spans
// recorded per line, plus an unterminated span at end of input finalized at
// the document end (the deliberate leniency for mid-edit documents).
func (s *Session) collectSpans(offsets []int, docEnd int) ([]spanRange, error) {
	var spans []spanRange
	for i, entry := range s.entries {
		for _, sp := range entry.Spans {
			origin := i - sp.OriginLineOffset
			if origin < 0 {
				origin = 0
			}
			spans = append(spans, spanRange{
				language:  sp.Language,
				start:     offsets[origin] + sp.StartColumn,
				end:       offsets[i] + sp.EndColumn,
				startLine: origin,
				endLine:   i,
				startCol:  sp.StartColumn,
				endCol:    sp.EndColumn,
			})
		}
	}

	lastLine := len(s.lines) - 1
	final, err := tokenizer.ParseKey(s.entries[lastLine].EndKey)
	if err != nil {
		return nil, err
	}
	if marker := final.Embedded(); marker != nil {
		origin := lastLine - marker.LineOffset
		if origin < 0 {
			origin = 0
		}
		spans = append(spans, spanRange{
			language:  marker.Language,
			start:     offsets[origin] + marker.StartColumn,
			end:       docEnd,
			startLine: origin,
			endLine:   lastLine,
			startCol:  marker.StartColumn,
			endCol:    len([]rune(s.lines[lastLine])),
		})
	}
	return spans, nil
}

// resolveSpan produces the subtree spliced at a span's nesting point,
// reusing the content-addressed subtree cache when the span text is
// unchanged. A language with no provider leaves an empty splice slot.
func (s *Session) resolveSpan(ctx context.Context, span spanRange) (*syntree.Node, error) {
	if s.registry == nil {
		return nil, nil
	}
	text := s.textBetween(span.startLine, span.startCol, span.endLine, span.endCol)

	built, ok := s.subtrees.Get(span.language, text)
	if !ok {
		var err error
		built, err = s.registry.Run(ctx, span.language, text, 0, s.interner)
		if errors.Is(err, embedded.ErrNoProvider) {
			s.logFor(ctx).Debug("no embedded provider",
				logging.FieldLanguage, span.language,
				logging.FieldError, err)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		s.subtrees.Put(span.language, text, built)
	}

	// Cached subtrees are built at offset 0; position a copy at the
	// splice point.
	subtree := syntree.Clone(built)
	syntree.Shift(subtree, span.start)
	return subtree, nil
}

// textBetween reconstructs the text between two line/column positions,
// joining intermediate lines with a single newline.
func (s *Session) textBetween(startLine, startCol, endLine, endCol int) string {
	clip := func(line string, from, to int) string {
		runes := []rune(line)
		if from < 0 {
			from = 0
		}
		if to > len(runes) {
			to = len(runes)
		}
		if from > to {
			return ""
		}
		return string(runes[from:to])
	}

	if startLine == endLine {
		return clip(s.lines[startLine], startCol, endCol)
	}

	var sb strings.Builder
	sb.WriteString(clip(s.lines[startLine], startCol, len([]rune(s.lines[startLine]))))
	for l := startLine + 1; l < endLine; l++ {
		sb.WriteByte('\n')
		sb.WriteString(s.lines[l])
	}
	sb.WriteByte('\n')
	sb.WriteString(clip(s.lines[endLine], 0, endCol))
	return sb.String()
}

func (s *Session) checkLine(i int) error {
	if i < 0 || i >= len(s.lines) {
		return fmt.Errorf("line %d out of range (document has %d lines)", i, len(s.lines))
	}
	return nil
}

func (s *Session) markDirty(i int) {
	if s.clean > i {
		s.clean = i
	}
}

func (s *Session) logFor(ctx context.Context) *log.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.FromContext(ctx)
}

// Package tokenizer implements the rule-driven line tokenization engine: a
// state-stack machine that runs one line of input at a time against a
// compiled grammar, producing an ordered token list, the resume stack for
// the next line, and any embedded-language spans that closed on the line.
// A per-line cache makes retokenization incremental.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gosyntax/internal/logging"
	"github.com/yaklabco/gosyntax/pkg/grammar"
)

// Tokenizer runs a compiled grammar over single lines. The grammar is
// immutable and a Tokenizer may be shared by any number of sessions; the
// per-line mutable state lives in the StateStack threaded through
// TokenizeLine calls.
type Tokenizer struct {
	grammar *grammar.Grammar
	logger  *log.Logger
}

// New creates a tokenizer for the compiled grammar.
func New(g *grammar.Grammar) *Tokenizer {
	return &Tokenizer{grammar: g}
}

// Grammar returns the compiled grammar this tokenizer runs.
func (t *Tokenizer) Grammar() *grammar.Grammar {
	return t.grammar
}

// SetLogger routes rule log actions and diagnostics to the given logger.
// Without one, the package default logger is used.
func (t *Tokenizer) SetLogger(logger *log.Logger) {
	t.logger = logger
}

// StartStack returns a fresh depth-1 stack at the grammar's start state.
func (t *Tokenizer) StartStack() *StateStack {
	return NewStack(t.grammar.Start)
}

// TokenizeLine tokenizes one line (no embedded newlines) starting from the
// given resume stack. The stack is mutated in place and becomes the next
// line's starting stack. Errors are grammar-consistency violations and are
// fatal to the tokenization attempt.
func (t *Tokenizer) TokenizeLine(line string, stack *StateStack) (LineResult, error) {
	run := &lineRun{
		tok:   t,
		g:     t.grammar,
		runes: []rune(line),
		stack: stack,
	}

	// Resuming into an open embedded span means one more line separates
	// us from the span's origin.
	if stack.Embedded() != nil {
		stack.AdvanceEmbeddedLine()
	}

	// Even a zero-length line gets one rule evaluation, so rules with
	// only state-transition side effects still fire on empty lines.
	first := true
	for run.pos < len(run.runes) || first {
		first = false
		if err := run.step(); err != nil {
			return LineResult{}, err
		}
	}

	return LineResult{Tokens: run.tokens, ClosedSpans: run.closed}, nil
}

// groupItem is one queued (sub-action, captured text) pair of a group match.
type groupItem struct {
	action grammar.Action
	text   string
}

// lineRun is the mutable state of a single TokenizeLine call.
type lineRun struct {
	tok    *Tokenizer
	g      *grammar.Grammar
	runes  []rune
	stack  *StateStack
	pos    int
	tokens []Token
	closed []EmbeddedSpan
	queue  []groupItem

	// prevKey is the stack key recorded when the last token was pushed.
	// The merge rule requires exact stack equality, not just matching
	// state names.
	prevKey string
}

// step performs one engine iteration: drain a queued group sub-action, or
// match rules at the current position, then apply the resolved action.
func (r *lineRun) step() error {
	startPos := r.pos
	startKey := r.stack.Key()
	startQueue := len(r.queue)

	var (
		action    grammar.Action
		matched   string
		groups    []string
		groupLens []int
		ruleName  string
		replaying bool
	)

	if len(r.queue) > 0 {
		// Group-match replay: consume the next queued pair instead of
		// rule-matching. The queue fully drains before normal matching
		// resumes.
		item := r.queue[0]
		r.queue = r.queue[1:]
		action = item.action
		matched = item.text
		groups = []string{matched}
		ruleName = "(group replay)"
		replaying = true
		r.pos += len([]rune(matched))
	} else {
		rules, err := r.g.FindRules(r.stack.Top())
		if err != nil {
			return err
		}

		found := false
		for i := range rules {
			rule := &rules[i]
			if rule.LineStartOnly && r.pos != 0 {
				continue
			}
			m, err := rule.Pattern.FindRunesMatchStartingAt(r.runes, r.pos)
			if err != nil {
				return fmt.Errorf("rule %q in state %q: %w", rule.Name, r.stack.Top(), err)
			}
			if m == nil || m.Index != r.pos {
				continue
			}

			matched = m.String()
			gs := m.Groups()
			groups = make([]string, len(gs))
			groupLens = make([]int, len(gs))
			for gi := range gs {
				groups[gi] = gs[gi].String()
				groupLens[gi] = gs[gi].Length
			}
			action = rule.Action
			ruleName = rule.Name
			found = true
			r.pos += m.Length
			break
		}

		if !found {
			// Synthesized one-character default match. Guarantees
			// forward progress even for pathological grammars.
			if r.pos < len(r.runes) {
				matched = string(r.runes[r.pos])
				r.pos++
			}
			groups = []string{matched}
			action = grammar.TokenAct(r.g.DefaultToken)
			ruleName = "(default)"
		}
	}

	matchStart := startPos
	matchEnd := r.pos
	state := r.stack.Top()
	eol := matchEnd >= len(r.runes)

	resolved, err := r.resolveCase(action, ruleName, matched, groups, state, eol)
	if err != nil {
		return err
	}

	if resolved.Kind == grammar.ActionGroup {
		if replaying {
			return fmt.Errorf("rule %q: %w", ruleName, ErrNestedGroup)
		}
		if matchEnd == matchStart {
			// An empty group match would replay empty sub-actions and
			// then rematch at the same position forever.
			return fmt.Errorf("rule %q in state %q: %w", ruleName, state, ErrNoProgress)
		}
		if len(groups)-1 != len(resolved.Subs) {
			return fmt.Errorf("rule %q: %w: %d sub-actions for %d capture groups",
				ruleName, ErrMalformedGroup, len(resolved.Subs), len(groups)-1)
		}
		total := 0
		for _, l := range groupLens[1:] {
			total += l
		}
		if total != matchEnd-matchStart {
			return fmt.Errorf("rule %q: %w: groups cover %d of %d matched characters",
				ruleName, ErrMalformedGroup, total, matchEnd-matchStart)
		}
		for i := range resolved.Subs {
			r.queue = append(r.queue, groupItem{action: resolved.Subs[i], text: groups[i+1]})
		}
		// The replay re-advances the position token by token.
		r.pos = matchStart
		return nil
	}

	if resolved.Kind != grammar.ActionToken {
		return fmt.Errorf("rule %q: %w", ruleName, ErrNoResult)
	}

	return r.applyToken(resolved, ruleName, matched, groups, state, matchStart, matchEnd, startKey, startQueue)
}

// resolveCase reduces case actions to their effective branch. Branch actions
// may themselves be cases; they are resolved until a token or group action
// remains.
func (r *lineRun) resolveCase(a grammar.Action, ruleName, matched string, groups []string, state string, eol bool) (grammar.Action, error) {
	for a.Kind == grammar.ActionCase {
		chosen := false
		for i := range a.Branches {
			held, err := a.Branches[i].Guard.Eval(r.g, matched, groups, state, eol)
			if err != nil {
				return grammar.Action{}, fmt.Errorf("rule %q: %w", ruleName, err)
			}
			if held {
				a = a.Branches[i].Action
				chosen = true
				break
			}
		}
		if !chosen {
			return grammar.Action{}, fmt.Errorf("rule %q: %w: no case branch held", ruleName, ErrNoResult)
		}
	}
	return a, nil
}

// applyToken fires a token action's side effects and emits its token.
// Side effects fire even when the result is @rematch or suppressed.
func (r *lineRun) applyToken(a grammar.Action, ruleName, matched string, groups []string, state string, matchStart, matchEnd int, startKey string, startQueue int) error {
	wasEmbedded := r.stack.Embedded() != nil
	closedNow := false

	// Embedded-language control. Opening defers the splice sentinel until
	// after the trigger token is emitted so the token list stays in
	// document order.
	var sentinel *Token
	if a.NestLanguage != "" {
		if a.NestLanguage == grammar.EmbedPop {
			marker := r.stack.ClearEmbedded()
			if marker == nil {
				return fmt.Errorf("rule %q: %w: no span open", ruleName, ErrEmbeddedConflict)
			}
			r.closed = append(r.closed, EmbeddedSpan{
				Language:         marker.Language,
				OriginLineOffset: marker.LineOffset,
				StartColumn:      marker.StartColumn,
				EndColumn:        matchStart,
			})
			closedNow = true
		} else {
			lang := grammar.Substitute(a.NestLanguage, matched, groups, state)
			col := matchEnd
			if a.Token == grammar.TokenRematch {
				col = matchStart
			}
			if err := r.stack.SetEmbedded(lang, 0, col); err != nil {
				return fmt.Errorf("rule %q: %w", ruleName, err)
			}
			// Zero-width sentinel marking the splice point for the
			// tree assembler.
			sentinel = &Token{Start: col, End: col, Language: lang}
		}
	}

	if a.Log != "" {
		r.logAction(a.Log, ruleName, a.Token, matched, groups, state, matchStart)
	}

	// Step-back lets a rule peek without consuming.
	if a.GoBack > 0 {
		r.pos -= a.GoBack
		if r.pos < 0 {
			r.pos = 0
		}
	}

	// State transition: switch and next are mutually exclusive.
	switch {
	case a.Switch != "":
		target := strings.TrimPrefix(grammar.Substitute(a.Switch, matched, groups, state), "@")
		if _, err := r.g.FindRules(target); err != nil {
			return fmt.Errorf("rule %q: switch: %w", ruleName, err)
		}
		r.stack.Switch(target)
	case a.Next != "":
		if err := r.transition(a.Next, ruleName, matched, groups, state); err != nil {
			return err
		}
	}

	// @rematch: rewind and discard the consumption; the next iteration
	// re-scans the same position under the new state. An attached
	// directive still needs a zero-width carrier.
	if a.Token == grammar.TokenRematch {
		r.pos = matchStart
		if !a.Directive.Empty() {
			r.tokens = append(r.tokens, Token{Start: matchStart, End: matchStart, Directive: a.Directive})
			r.prevKey = ""
		}
		r.emitSentinel(sentinel)
		return r.checkProgress(ruleName, matchStart, startKey, startQueue)
	}

	// Text inside an embedded span belongs to the delegate grammar and
	// is never tokenized here. The opening and closing trigger matches
	// themselves belong to this grammar and are emitted normally.
	if wasEmbedded && !closedNow {
		return r.checkProgress(ruleName, matchStart, startKey, startQueue)
	}

	name := a.Token
	if strings.ContainsRune(name, '$') {
		name = grammar.Substitute(name, matched, groups, state)
	}
	directive := a.Directive
	suppressed := false

	if strings.HasPrefix(name, grammar.TokenBrackets) {
		bracket, side := r.g.BracketFor(matched)
		if side == grammar.BracketNone {
			return fmt.Errorf("rule %q: %w (%q)", ruleName, ErrMissingBracket, matched)
		}
		name = bracket.Token + name[len(grammar.TokenBrackets):]
	} else if strings.HasPrefix(name, "@") {
		// Structural no-op scope: nothing visible is emitted, but an
		// attached directive still needs a carrier.
		if !directive.Empty() {
			r.tokens = append(r.tokens, Token{Start: matchStart, End: matchStart, Directive: directive})
			r.prevKey = ""
		}
		suppressed = true
	}

	// Zero-width matches produce no token, only state changes.
	if end := r.pos; !suppressed && end > matchStart {
		key := r.stack.Key()
		if n := len(r.tokens); n > 0 && r.prevKey == key && r.tokens[n-1].mergeable(name, matchStart, directive) {
			r.tokens[n-1].End = end
		} else {
			r.tokens = append(r.tokens, Token{Type: name, Start: matchStart, End: end, Directive: directive})
			r.prevKey = key
		}
	}

	r.emitSentinel(sentinel)
	return r.checkProgress(ruleName, matchStart, startKey, startQueue)
}

// emitSentinel appends a deferred embedded-splice sentinel. Sentinels never
// merge with neighbors.
func (r *lineRun) emitSentinel(sentinel *Token) {
	if sentinel == nil {
		return
	}
	r.tokens = append(r.tokens, *sentinel)
	r.prevKey = ""
}

// transition applies a next-state directive.
func (r *lineRun) transition(next, ruleName, matched string, groups []string, state string) error {
	switch next {
	case grammar.NextPush:
		// Pushing a duplicate of the current state is the idiom for
		// "recurse into a copy of this same state".
		return r.push(r.stack.Top(), ruleName)
	case grammar.NextPop:
		if _, ok := r.stack.Pop(); !ok {
			return fmt.Errorf("rule %q: %w", ruleName, ErrIllegalPop)
		}
		return nil
	case grammar.NextPopAll:
		r.stack.PopAll()
		return nil
	default:
		target := strings.TrimPrefix(grammar.Substitute(next, matched, groups, state), "@")
		if _, err := r.g.FindRules(target); err != nil {
			return fmt.Errorf("rule %q: next: %w", ruleName, err)
		}
		return r.push(target, ruleName)
	}
}

func (r *lineRun) push(name, ruleName string) error {
	if r.stack.Depth()+1 > r.g.EffectiveMaxStackDepth() {
		return fmt.Errorf("rule %q: %w (depth %d)", ruleName, ErrStackOverflow, r.stack.Depth())
	}
	r.stack.Push(name)
	return nil
}

// checkProgress is the zero-progress guard: an iteration that consumed no
// characters must have observably changed something, or the engine would
// loop forever on a misconfigured grammar.
func (r *lineRun) checkProgress(ruleName string, startPos int, startKey string, startQueue int) error {
	if r.pos != startPos {
		return nil
	}
	if len(r.runes) == 0 {
		return nil
	}
	if r.stack.Key() != startKey || len(r.queue) != startQueue {
		return nil
	}
	return fmt.Errorf("rule %q in state %q: %w", ruleName, r.stack.Top(), ErrNoProgress)
}

func (r *lineRun) logAction(template, ruleName, token, matched string, groups []string, state string, offset int) {
	logger := r.tok.logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.Debug(grammar.Substitute(template, matched, groups, state),
		logging.FieldGrammar, r.g.Name,
		logging.FieldState, state,
		logging.FieldRule, ruleName,
		logging.FieldToken, token,
		logging.FieldOffset, offset)
}

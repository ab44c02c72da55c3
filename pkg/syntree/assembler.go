package syntree

import (
	"github.com/yaklabco/gosyntax/pkg/tokenizer"
)

// Assembler converts a document-ordered token stream with open/close
// directives into the flat buffer encoding. Tokens must arrive with
// absolute document offsets. The open-node stack is explicit; a scope left
// open at end of input is force-closed at the final position rather than
// reported as an error, since incrementally edited documents are very often
// transiently unbalanced.
type Assembler struct {
	interner *Interner
	entries  []Entry
	splices  []*Node
	frames   []frame
}

// frame is one open node: its type, start offset, and the buffer index
// where its subtree's entries begin.
type frame struct {
	typ      TypeID
	start    int
	bufStart int
}

// NewAssembler creates an assembler interning type names through in.
func NewAssembler(in *Interner) *Assembler {
	return &Assembler{interner: in}
}

// Interner returns the interner type names resolve through.
func (a *Assembler) Interner() *Interner {
	return a.interner
}

// Depth returns the number of currently open nodes.
func (a *Assembler) Depth() int {
	return len(a.frames)
}

// Add processes one token. Directive closes are processed first, then the
// token itself becomes a leaf, then directive opens push new frames; this
// fixed order lets a single token close an ancestor scope and open a new
// one with correct nesting.
func (a *Assembler) Add(tok tokenizer.Token) {
	d := tok.Directive
	folded := false

	if !d.Empty() {
		for _, name := range d.Close {
			a.close(a.interner.Intern(name), tok, false, &folded)
		}
		for _, name := range d.End {
			a.close(a.interner.Intern(name), tok, true, &folded)
		}
	}

	leafIdx := -1
	if tok.Type != "" && tok.End > tok.Start && !folded {
		leafIdx = len(a.entries)
		a.leaf(tok)
	}

	if !d.Empty() {
		for _, name := range d.Start {
			// Inclusive open: the opening token becomes the first child.
			bufStart := len(a.entries)
			if leafIdx >= 0 {
				bufStart = leafIdx
			}
			a.frames = append(a.frames, frame{
				typ:      a.interner.Intern(name),
				start:    tok.Start,
				bufStart: bufStart,
			})
		}
		for _, name := range d.Open {
			// Exclusive open: the node starts after the opening token.
			a.frames = append(a.frames, frame{
				typ:      a.interner.Intern(name),
				start:    tok.End,
				bufStart: len(a.entries),
			})
		}
	}
}

// Splice records a splice slot standing for a prebuilt embedded-language
// subtree spanning [start, end).
func (a *Assembler) Splice(subtree *Node, start, end int) {
	typ := a.interner.Intern("embedded")
	if subtree != nil {
		typ = subtree.Type
	}
	a.entries = append(a.entries, Entry{Type: typ, Start: start, End: end, Size: SpliceSize})
	a.splices = append(a.splices, subtree)
}

// Finish force-closes any still-open nodes at the final position and
// returns the assembled buffer. The assembler is reset for reuse.
func (a *Assembler) Finish(end int) *Buffer {
	for len(a.frames) > 0 {
		a.pop(end)
	}
	buf := &Buffer{Entries: a.entries, Splices: a.splices}
	a.entries = nil
	a.splices = nil
	return buf
}

// close pops the topmost frame of the given type, force-closing anything
// opened above it. A close with no matching open frame is ignored.
func (a *Assembler) close(typ TypeID, tok tokenizer.Token, inclusive bool, folded *bool) {
	target := -1
	for i := len(a.frames) - 1; i >= 0; i-- {
		if a.frames[i].typ == typ {
			target = i
			break
		}
	}
	if target < 0 {
		return
	}

	boundary := tok.Start
	if inclusive {
		boundary = tok.End
		// Fold the closing token into the node before popping it.
		if !*folded && tok.Type != "" && tok.End > tok.Start {
			a.leaf(tok)
			*folded = true
		}
	}

	for len(a.frames) > target {
		a.pop(boundary)
	}
}

// pop completes the top frame at the given end offset, appending its entry
// after its children per the postorder encoding.
func (a *Assembler) pop(end int) {
	f := a.frames[len(a.frames)-1]
	a.frames = a.frames[:len(a.frames)-1]

	if end < f.start {
		end = f.start
	}
	a.entries = append(a.entries, Entry{
		Type:  f.typ,
		Start: f.start,
		End:   end,
		Size:  int32(len(a.entries) - f.bufStart + 1),
	})
}

func (a *Assembler) leaf(tok tokenizer.Token) {
	a.entries = append(a.entries, Entry{
		Type:  a.interner.Intern(tok.Type),
		Start: tok.Start,
		End:   tok.End,
		Size:  1,
	})
}

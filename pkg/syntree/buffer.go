package syntree

// SpliceSize in an entry's Size field marks a splice slot: the slot stands
// for a previously-built embedded-language subtree rather than a node of
// this tree.
const SpliceSize = -1

// Entry is one slot of the flat tree encoding. Entries appear in postorder:
// a node's children precede it, and Size counts the entries of its whole
// subtree, itself included. Leaves have Size 1.
type Entry struct {
	// Type identifies the node's scope/token type.
	Type TypeID

	// Start and End are the node's absolute document offsets.
	Start int
	End   int

	// Size is the entry count of this subtree, or SpliceSize for a
	// splice slot.
	Size int32
}

// Buffer is the assembled flat tree: the postorder entries plus the
// prebuilt subtrees its splice slots refer to, in document order.
type Buffer struct {
	Entries []Entry
	Splices []*Node
}

// Build reconstructs the pointer tree the buffer encodes. All top-level
// subtrees become children of a synthetic root of the given type spanning
// the whole buffer.
func (b *Buffer) Build(rootType TypeID) *Node {
	start, end := 0, 0
	if len(b.Entries) > 0 {
		start = b.Entries[0].Start
		end = b.Entries[len(b.Entries)-1].End
		for _, e := range b.Entries {
			if e.Start < start {
				start = e.Start
			}
			if e.End > end {
				end = e.End
			}
		}
	}
	root := NewNode(rootType, start, end)

	idx := len(b.Entries)
	spliceIdx := len(b.Splices)

	// Entries are postorder, so subtrees are parsed back to front.
	var parse func() *Node
	parse = func() *Node {
		idx--
		e := b.Entries[idx]

		if e.Size == SpliceSize {
			spliceIdx--
			return b.Splices[spliceIdx]
		}

		n := NewNode(e.Type, e.Start, e.End)
		stop := idx - (int(e.Size) - 1)
		var children []*Node
		for idx > stop {
			children = append(children, parse())
		}
		for i := len(children) - 1; i >= 0; i-- {
			AppendChild(n, children[i])
		}
		return n
	}

	var tops []*Node
	for idx > 0 {
		tops = append(tops, parse())
	}
	for i := len(tops) - 1; i >= 0; i-- {
		AppendChild(root, tops[i])
	}
	return root
}

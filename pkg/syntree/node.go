package syntree

// Node represents a single node in an assembled syntax tree. Nodes form a
// tree structure with parent/child/sibling relationships. Offsets are
// absolute document offsets.
type Node struct {
	// Type identifies what scope or token type this node represents.
	Type TypeID

	// Start and End are the node's absolute document span.
	Start int
	End   int

	// Tree structure pointers.
	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Prev       *Node
	Next       *Node
}

// NewNode creates a detached node.
func NewNode(typ TypeID, start, end int) *Node {
	return &Node{Type: typ, Start: start, End: end}
}

// Len returns the node's span width.
func (n *Node) Len() int {
	return n.End - n.Start
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.FirstChild == nil
}

// HasChildren returns true if this node has any children.
func (n *Node) HasChildren() bool {
	return n.FirstChild != nil
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for child := n.FirstChild; child != nil; child = child.Next {
		count++
	}
	return count
}

// Children returns a slice of all direct children.
func (n *Node) Children() []*Node {
	var children []*Node
	for child := n.FirstChild; child != nil; child = child.Next {
		children = append(children, child)
	}
	return children
}

// AppendChild appends a child node to a parent.
// It maintains the parent/child/sibling relationships correctly.
func AppendChild(parent, child *Node) {
	if parent == nil || child == nil {
		return
	}

	if child.Parent != nil {
		RemoveChild(child.Parent, child)
	}

	child.Parent = parent
	child.Prev = parent.LastChild
	child.Next = nil

	if parent.LastChild != nil {
		parent.LastChild.Next = child
	} else {
		parent.FirstChild = child
	}

	parent.LastChild = child
}

// Clone returns a deep copy of the subtree rooted at n, detached from any
// parent.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := NewNode(n.Type, n.Start, n.End)
	for child := n.FirstChild; child != nil; child = child.Next {
		AppendChild(cp, Clone(child))
	}
	return cp
}

// Shift moves every offset in the subtree by delta. Used to reposition a
// cached embedded subtree at its splice point.
func Shift(n *Node, delta int) {
	if n == nil || delta == 0 {
		return
	}
	n.Start += delta
	n.End += delta
	for child := n.FirstChild; child != nil; child = child.Next {
		Shift(child, delta)
	}
}

// RemoveChild removes a child from its parent.
func RemoveChild(parent, child *Node) {
	if parent == nil || child == nil || child.Parent != parent {
		return
	}

	if child.Prev != nil {
		child.Prev.Next = child.Next
	} else {
		parent.FirstChild = child.Next
	}

	if child.Next != nil {
		child.Next.Prev = child.Prev
	} else {
		parent.LastChild = child.Prev
	}

	child.Parent = nil
	child.Prev = nil
	child.Next = nil
}

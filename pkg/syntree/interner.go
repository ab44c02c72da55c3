// Package syntree assembles flat token streams carrying open/close
// directives into nested syntax trees. The assembler produces a compact
// postorder flat buffer; Build reconstructs a pointer tree from it.
// Embedded-language regions appear as splice slots resolved against
// delegate-built subtrees.
package syntree

// TypeID is an interned scope/token type identifier.
type TypeID int32

// Interner maps scope and token type names to dense TypeIDs and back.
// IDs are stable for the lifetime of the interner.
type Interner struct {
	ids   map[string]TypeID
	names []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{ids: make(map[string]TypeID)}
}

// Intern returns the id for name, assigning the next free id on first use.
func (in *Interner) Intern(name string) TypeID {
	if id, ok := in.ids[name]; ok {
		return id
	}
	id := TypeID(len(in.names))
	in.ids[name] = id
	in.names = append(in.names, name)
	return id
}

// Lookup returns the id for name without assigning one.
func (in *Interner) Lookup(name string) (TypeID, bool) {
	id, ok := in.ids[name]
	return id, ok
}

// Name returns the name for id, or "" for an unknown id.
func (in *Interner) Name(id TypeID) string {
	if id < 0 || int(id) >= len(in.names) {
		return ""
	}
	return in.names[id]
}

// Len returns the number of interned names.
func (in *Interner) Len() int {
	return len(in.names)
}

package tokenizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Serialization delimiters. markerSep splices the embedded marker onto the
// last stack element; keySep joins elements into a single comparison key.
// Both are control characters that cannot appear in state names.
const (
	markerSep = "\x1f"
	keySep    = "\x1e"
)

// EmbeddedMarker records the one embedded-language span a stack may have
// open: which language owns it, how many lines back it began, and at which
// column. The line offset is relative so cache entries stay valid when
// lines shift.
type EmbeddedMarker struct {
	// Language is the embedded language name.
	Language string

	// LineOffset counts how many lines back the span's origin line is.
	LineOffset int

	// StartColumn is the column on the origin line where the span begins.
	StartColumn int
}

// StateStack tracks the nested tokenizer states at one resume point. Depth
// is always at least 1; the bottom element is never popped. A stack is owned
// by a single tokenization session and mutated in place line to line.
type StateStack struct {
	states   []string
	embedded *EmbeddedMarker
}

// ErrBadStack indicates a serialized stack could not be decoded.
var ErrBadStack = errors.New("bad serialized stack")

// NewStack creates a depth-1 stack holding the initial state.
func NewStack(initial string) *StateStack {
	return &StateStack{states: []string{initial}}
}

// Depth returns the number of states on the stack. Always >= 1.
func (s *StateStack) Depth() int {
	return len(s.states)
}

// Top returns the active state name.
func (s *StateStack) Top() string {
	return s.states[len(s.states)-1]
}

// Push makes name the active state.
func (s *StateStack) Push(name string) {
	s.states = append(s.states, name)
}

// Pop removes and returns the active state. It reports false, leaving the
// stack untouched, when the stack is already at depth 1.
func (s *StateStack) Pop() (string, bool) {
	if len(s.states) <= 1 {
		return "", false
	}
	top := s.states[len(s.states)-1]
	s.states = s.states[:len(s.states)-1]
	return top, true
}

// Switch replaces the active state in place.
func (s *StateStack) Switch(name string) {
	s.states[len(s.states)-1] = name
}

// PopAll collapses the stack to its bottom element.
func (s *StateStack) PopAll() {
	s.states = s.states[:1]
}

// Clone returns a deep, independent copy including the embedded marker.
func (s *StateStack) Clone() *StateStack {
	states := make([]string, len(s.states))
	copy(states, s.states)
	clone := &StateStack{states: states}
	if s.embedded != nil {
		m := *s.embedded
		clone.embedded = &m
	}
	return clone
}

// Embedded returns the open embedded marker, or nil.
func (s *StateStack) Embedded() *EmbeddedMarker {
	return s.embedded
}

// SetEmbedded opens an embedded-language span. At most one span may be open
// at a time; opening a second is an embedding-consistency error.
func (s *StateStack) SetEmbedded(language string, lineOffset, startColumn int) error {
	if s.embedded != nil {
		return fmt.Errorf("%w: span for %q still open", ErrEmbeddedConflict, s.embedded.Language)
	}
	s.embedded = &EmbeddedMarker{Language: language, LineOffset: lineOffset, StartColumn: startColumn}
	return nil
}

// ClearEmbedded removes and returns the open marker, or nil if none is open.
func (s *StateStack) ClearEmbedded() *EmbeddedMarker {
	m := s.embedded
	s.embedded = nil
	return m
}

// AdvanceEmbeddedLine bumps the open marker's line offset by one. Called once
// per line advanced while a span stays open, so the marker always encodes the
// distance back to its origin line. No-op without an open marker.
func (s *StateStack) AdvanceEmbeddedLine() {
	if s.embedded != nil {
		s.embedded.LineOffset++
	}
}

// Serialize encodes the stack as one string per depth level, bottom first.
// An open embedded marker is appended to the last element behind a fixed
// delimiter. ParseStack inverts this exactly.
func (s *StateStack) Serialize() []string {
	out := make([]string, len(s.states))
	copy(out, s.states)
	if s.embedded != nil {
		last := len(out) - 1
		out[last] = out[last] + markerSep + s.embedded.Language +
			markerSep + strconv.Itoa(s.embedded.LineOffset) +
			markerSep + strconv.Itoa(s.embedded.StartColumn)
	}
	return out
}

// Key returns a single opaque string identifying the stack's exact contents,
// embedded marker included. Equal keys mean equal stacks.
func (s *StateStack) Key() string {
	return strings.Join(s.Serialize(), keySep)
}

// Equal reports whether two stacks have identical states and markers.
func (s *StateStack) Equal(other *StateStack) bool {
	if other == nil {
		return false
	}
	return s.Key() == other.Key()
}

// ParseStack decodes the output of Serialize.
func ParseStack(parts []string) (*StateStack, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadStack)
	}

	states := make([]string, len(parts))
	copy(states, parts)

	stack := &StateStack{states: states}

	last := len(states) - 1
	if idx := strings.Index(states[last], markerSep); idx >= 0 {
		fields := strings.Split(states[last][idx+1:], markerSep)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: malformed embedded marker", ErrBadStack)
		}
		lineOffset, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: marker line offset: %v", ErrBadStack, err)
		}
		startColumn, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: marker start column: %v", ErrBadStack, err)
		}
		states[last] = states[last][:idx]
		stack.embedded = &EmbeddedMarker{
			Language:    fields[0],
			LineOffset:  lineOffset,
			StartColumn: startColumn,
		}
	}

	for _, state := range states {
		if state == "" {
			return nil, fmt.Errorf("%w: empty state name", ErrBadStack)
		}
	}

	return stack, nil
}

// ParseKey decodes the output of Key.
func ParseKey(key string) (*StateStack, error) {
	return ParseStack(strings.Split(key, keySep))
}

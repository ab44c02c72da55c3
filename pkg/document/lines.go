// Package document drives incremental tokenization of one document: it owns
// the per-line cache, threads the state stack line to line, and builds the
// assembled syntax tree with embedded-language spans resolved through a
// delegate registry. A session is owned by exactly one logical host; the
// grammar it runs is immutable and freely shared.
package document

import "strings"

// SplitLines splits document text into newline-free lines. Both LF and CRLF
// endings are handled; the line terminators themselves are dropped. Empty
// text yields a single empty line, matching the tokenizer's view that every
// document has at least one line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// lineOffsets returns the absolute rune offset of each line's first
// character, counting one rune per line separator.
func lineOffsets(lines []string) []int {
	offsets := make([]int, len(lines))
	off := 0
	for i, line := range lines {
		offsets[i] = off
		off += len([]rune(line)) + 1
	}
	return offsets
}

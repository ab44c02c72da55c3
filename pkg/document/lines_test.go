package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty text", text: "", want: []string{""}},
		{name: "single line", text: "hello", want: []string{"hello"}},
		{name: "lf endings", text: "a\nb\nc", want: []string{"a", "b", "c"}},
		{name: "crlf endings", text: "a\r\nb\r\nc", want: []string{"a", "b", "c"}},
		{name: "trailing newline", text: "a\n", want: []string{"a", ""}},
		{name: "blank lines kept", text: "a\n\nb", want: []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.text))
		})
	}
}

func TestLineOffsets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0}, lineOffsets([]string{""}))
	assert.Equal(t, []int{0, 2, 6}, lineOffsets([]string{"a", "bcd", "e"}))

	// Offsets count runes, not bytes.
	assert.Equal(t, []int{0, 4}, lineOffsets([]string{"héé", "x"}))
}

package tokenizer

import "crypto/sha256"

// CacheEntry memoizes one line's tokenization. A revisit skips retokenizing
// when the line's incoming stack, length, and content hash are all unchanged.
// The hash is a fast-reject filter, never a correctness guarantee on its
// own: length and stack equality are always checked in addition, and a hash
// mismatch simply forces retokenization.
type CacheEntry struct {
	// ContentHash is the SHA-256 hash of the line text.
	ContentHash [32]byte

	// Length is the line length in bytes.
	Length int

	// StartKey is the serialized stack the line was tokenized from.
	StartKey string

	// EndKey is the serialized stack the line ended with.
	EndKey string

	// Tokens is the memoized token list.
	Tokens []Token

	// Spans lists the embedded spans that closed on this line.
	Spans []EmbeddedSpan
}

// NewCacheEntry builds a populated entry from one line's tokenization.
func NewCacheEntry(text, startKey, endKey string, result LineResult) *CacheEntry {
	return &CacheEntry{
		ContentHash: sha256.Sum256([]byte(text)),
		Length:      len(text),
		StartKey:    startKey,
		EndKey:      endKey,
		Tokens:      result.Tokens,
		Spans:       result.ClosedSpans,
	}
}

// Validate reports whether the entry must be retokenized for the given text
// and incoming stack. It returns false, touching nothing, when the incoming
// stack still matches the recorded starting stack and the text's length and
// hash are unchanged. The caller retokenizes and calls Update otherwise.
func (e *CacheEntry) Validate(text, startKey string) bool {
	if e.StartKey != startKey {
		return true
	}
	if e.Length != len(text) {
		return true
	}
	return e.ContentHash != sha256.Sum256([]byte(text))
}

// Update replaces the entry's contents after a retokenization.
func (e *CacheEntry) Update(text, startKey, endKey string, result LineResult) {
	e.ContentHash = sha256.Sum256([]byte(text))
	e.Length = len(text)
	e.StartKey = startKey
	e.EndKey = endKey
	e.Tokens = result.Tokens
	e.Spans = result.ClosedSpans
}

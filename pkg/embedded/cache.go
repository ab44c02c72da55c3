package embedded

import (
	"crypto/sha256"

	"github.com/yaklabco/gosyntax/pkg/syntree"
)

// Cache reuses previously built embedded subtrees. Keys are content hashes
// of the span text scoped by language, so an unchanged span is spliced
// without reparsing no matter how the surrounding document moved.
type Cache struct {
	entries map[[32]byte]*syntree.Node
}

// NewCache creates an empty subtree cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[[32]byte]*syntree.Node)}
}

// Get returns the cached subtree for a span, if any.
func (c *Cache) Get(language, text string) (*syntree.Node, bool) {
	n, ok := c.entries[cacheKey(language, text)]
	return n, ok
}

// Put stores a built subtree for a span.
func (c *Cache) Put(language, text string, n *syntree.Node) {
	c.entries[cacheKey(language, text)] = n
}

// Len returns the number of cached subtrees.
func (c *Cache) Len() int {
	return len(c.entries)
}

func cacheKey(language, text string) [32]byte {
	h := sha256.New()
	h.Write([]byte(Normalize(language)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

package index

import (
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// node is owned by exactly one parent. ids holds record ordinals (see
// RecordStore) for every indexed value whose path runs through the node.
type node struct {
	children map[rune]*node
	keys     []rune // sorted children keys, gives traversals a stable order
	ids      *roaring.Bitmap
	terminal bool
}

func newNode() *node {
	return &node{ids: roaring.New()}
}

func (n *node) child(r rune) *node {
	if n.children == nil {
		return nil
	}
	return n.children[r]
}

func (n *node) childOrCreate(r rune) *node {
	if c := n.child(r); c != nil {
		return c
	}
	if n.children == nil {
		n.children = make(map[rune]*node, 1)
	}
	c := newNode()
	n.children[r] = c
	i, _ := slices.BinarySearch(n.keys, r)
	n.keys = slices.Insert(n.keys, i, r)
	return c
}

// TermMatch is a complete indexed value found below a prefix.
type TermMatch struct {
	Term string
	IDs  *roaring.Bitmap
}

// Count is the number of records whose value starts with Term.
func (m TermMatch) Count() int {
	return int(m.IDs.GetCardinality())
}

// FieldTrie is a prefix tree over one normalized record field.
type FieldTrie struct {
	root  *node
	terms int
	nodes int
}

// NewFieldTrie returns an empty trie.
func NewFieldTrie() *FieldTrie {
	return &FieldTrie{root: newNode(), nodes: 1}
}

// Insert adds ordinal to every node on the path of word and marks the last
// node terminal. word must already be normalized. Inserting the same pair
// twice changes nothing; an empty word is ignored.
func (t *FieldTrie) Insert(word string, ordinal uint32) {
	if word == "" {
		return
	}
	n := t.root
	for _, r := range word {
		next := n.child(r)
		if next == nil {
			next = n.childOrCreate(r)
			t.nodes++
		}
		next.ids.Add(ordinal)
		n = next
	}
	if !n.terminal {
		n.terminal = true
		t.terms++
	}
}

func (t *FieldTrie) find(prefix string) *node {
	n := t.root
	for _, r := range prefix {
		n = n.child(r)
		if n == nil {
			return nil
		}
	}
	return n
}

// MatchesForPrefix returns the ordinals of every record with a value
// starting with prefix. The bitmap belongs to the trie and must not be
// modified. An empty prefix matches nothing.
func (t *FieldTrie) MatchesForPrefix(prefix string) *roaring.Bitmap {
	if t == nil || prefix == "" {
		return roaring.New()
	}
	n := t.find(prefix)
	if n == nil {
		return roaring.New()
	}
	return n.ids
}

// CollectTerminalWords walks the subtree under prefix depth first, in
// character order, and returns at most maxResults complete values.
// maxDepth caps how many characters past prefix are explored.
func (t *FieldTrie) CollectTerminalWords(prefix string, maxResults, maxDepth int) []TermMatch {
	if t == nil || prefix == "" || maxResults <= 0 || maxDepth < 0 {
		return nil
	}
	start := t.find(prefix)
	if start == nil {
		return nil
	}
	return collect(start, prefix, maxResults, maxDepth)
}

type frame struct {
	n     *node
	word  string
	depth int
}

// collect is an explicit-stack pre-order traversal; children are pushed in
// reverse so they pop in ascending order.
func collect(start *node, prefix string, maxResults, maxDepth int) []TermMatch {
	var out []TermMatch
	stack := []frame{{n: start, word: prefix}}

	for len(stack) > 0 && len(out) < maxResults {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.n.terminal {
			out = append(out, TermMatch{Term: f.word, IDs: f.n.ids})
		}
		if f.depth >= maxDepth {
			continue
		}
		for i := len(f.n.keys) - 1; i >= 0; i-- {
			r := f.n.keys[i]
			var b strings.Builder
			b.Grow(len(f.word) + 4)
			b.WriteString(f.word)
			b.WriteRune(r)
			stack = append(stack, frame{n: f.n.children[r], word: b.String(), depth: f.depth + 1})
		}
	}
	return out
}

// Terms is the number of distinct values inserted.
func (t *FieldTrie) Terms() int { return t.terms }

// Nodes is the number of nodes including the root.
func (t *FieldTrie) Nodes() int { return t.nodes }

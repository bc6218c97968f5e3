package index

import (
	"strings"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terms(matches []TermMatch) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Term
	}
	return out
}

func TestFieldTrieInsertAndMatch(t *testing.T) {
	trie := NewFieldTrie()
	trie.Insert("mark twain", 0)
	trie.Insert("mary shelley", 1)
	trie.Insert("jane austen", 2)

	assert.Equal(t, []uint32{0, 1}, trie.MatchesForPrefix("mar").ToArray())
	assert.Equal(t, []uint32{0}, trie.MatchesForPrefix("mark").ToArray())
	assert.Equal(t, []uint32{2}, trie.MatchesForPrefix("jane austen").ToArray())
	assert.True(t, trie.MatchesForPrefix("jane austenx").IsEmpty())
	assert.True(t, trie.MatchesForPrefix("z").IsEmpty())
	assert.True(t, trie.MatchesForPrefix("").IsEmpty())
	assert.Equal(t, 3, trie.Terms())
}

func TestFieldTrieInsertIsIdempotent(t *testing.T) {
	trie := NewFieldTrie()
	trie.Insert("fiction", 4)
	nodes := trie.Nodes()

	trie.Insert("fiction", 4)
	trie.Insert("", 4)

	assert.Equal(t, nodes, trie.Nodes())
	assert.Equal(t, 1, trie.Terms())
	assert.Equal(t, uint64(1), trie.MatchesForPrefix("f").GetCardinality())

	// a longer value through a terminal node keeps it terminal
	trie.Insert("fictional", 5)
	assert.Equal(t, []string{"fiction", "fictional"}, terms(trie.CollectTerminalWords("fic", 10, 64)))
}

func TestFieldTriePrefixMonotonic(t *testing.T) {
	trie := NewFieldTrie()
	words := []string{"romance", "romantic poetry", "rome", "roman history", "robots"}
	for i, w := range words {
		trie.Insert(w, uint32(i))
	}

	for _, w := range words {
		full := trie.MatchesForPrefix(w)
		runes := []rune(w)
		for i := 1; i <= len(runes); i++ {
			prefix := trie.MatchesForPrefix(string(runes[:i]))
			assert.True(t, roaring.AndNot(full, prefix).IsEmpty(), "prefix %q of %q", string(runes[:i]), w)
		}
	}
}

func TestCollectTerminalWords(t *testing.T) {
	trie := NewFieldTrie()
	for i, w := range []string{"adventure", "adventures", "advice", "adult", "zoo"} {
		trie.Insert(w, uint32(i))
	}

	testCases := []struct {
		description string
		prefix      string
		maxResults  int
		maxDepth    int
		expected    []string
	}{
		{"all in order", "ad", 10, 64, []string{"adult", "adventure", "adventures", "advice"}},
		{"result cap", "ad", 2, 64, []string{"adult", "adventure"}},
		{"depth cap", "ad", 10, 3, []string{"adult"}},
		{"exact terminal", "advice", 10, 64, []string{"advice"}},
		{"no match", "ax", 10, 64, nil},
		{"zero results", "ad", 0, 64, nil},
		{"empty prefix", "", 10, 64, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := trie.CollectTerminalWords(tc.prefix, tc.maxResults, tc.maxDepth)
			if tc.expected == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.expected, terms(got))
		})
	}
}

func TestCollectTerminalWordsCounts(t *testing.T) {
	trie := NewFieldTrie()
	trie.Insert("fiction", 1)
	trie.Insert("fiction", 2)
	trie.Insert("fiction", 3)

	got := trie.CollectTerminalWords("fi", 5, 64)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Count())
}

func TestCollectTerminalWordsLongValue(t *testing.T) {
	trie := NewFieldTrie()
	long := "a" + strings.Repeat("b", 5000)
	trie.Insert(long, 1)
	trie.Insert("ab", 2)

	got := trie.CollectTerminalWords("a", 10, 64)
	assert.Equal(t, []string{"ab"}, terms(got))
}

func TestEmptyTrieLookups(t *testing.T) {
	trie := NewFieldTrie()
	assert.True(t, trie.MatchesForPrefix("abc").IsEmpty())
	assert.Empty(t, trie.CollectTerminalWords("abc", 5, 5))

	var nilTrie *FieldTrie
	assert.True(t, nilTrie.MatchesForPrefix("abc").IsEmpty())
	assert.Empty(t, nilTrie.CollectTerminalWords("abc", 5, 5))
}
